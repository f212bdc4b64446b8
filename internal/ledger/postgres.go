package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

const (
	mutateMaxAttempts = 3
	mutateBackoff     = 50 * time.Millisecond
)

// PostgresStore persists wallets and their transaction logs in PostgreSQL.
// Mutations lock the wallet row (SELECT ... FOR UPDATE) so concurrent
// credits and debits against the same wallet serialize; different wallets
// never block each other.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// WalletOf fetches the wallet owned by the user.
func (s *PostgresStore) WalletOf(ctx context.Context, userID string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, ErrUserNotFound
	}

	const query = `SELECT id, balance::text, updated_at FROM wallets WHERE user_id = $1`
	var (
		id        uuid.UUID
		balance   string
		updatedAt time.Time
	)
	if err := s.db.QueryRow(ctx, query, uid).Scan(&id, &balance, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrUserNotFound
		}
		return Wallet{}, &StorageError{Op: "wallet lookup", Err: err}
	}

	bal, err := money.Parse(balance)
	if err != nil {
		return Wallet{}, &StorageError{Op: "wallet lookup", Err: err}
	}

	return Wallet{ID: id.String(), UserID: userID, Balance: bal, UpdatedAt: updatedAt.UTC()}, nil
}

// Credit applies a balance increase and appends a CREDIT transaction.
func (s *PostgresStore) Credit(ctx context.Context, userID string, amount money.Money, description string) (MutationResult, error) {
	return s.mutate(ctx, userID, amount, TypeCredit, description)
}

// Debit applies a balance decrease guarded by the insufficient-funds check
// and appends a DEBIT transaction.
func (s *PostgresStore) Debit(ctx context.Context, userID string, amount money.Money, description string) (MutationResult, error) {
	return s.mutate(ctx, userID, amount, TypeDebit, description)
}

func (s *PostgresStore) mutate(ctx context.Context, userID string, amount money.Money, kind Type, description string) (MutationResult, error) {
	if err := validateAmount(amount); err != nil {
		return MutationResult{}, err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return MutationResult{}, ErrUserNotFound
	}

	var lastErr error
	for attempt := 1; attempt <= mutateMaxAttempts; attempt++ {
		res, err := s.applyOnce(ctx, uid, amount, kind, description)
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return MutationResult{}, err
		}
		lastErr = err
		select {
		case <-time.After(time.Duration(attempt) * mutateBackoff):
		case <-ctx.Done():
			return MutationResult{}, &StorageError{Op: string(kind), Err: ctx.Err()}
		}
	}
	return MutationResult{}, lastErr
}

// applyOnce runs one atomic check-update-append unit. Either the balance
// update and the transaction insert both commit, or neither does.
func (s *PostgresStore) applyOnce(ctx context.Context, userID uuid.UUID, amount money.Money, kind Type, description string) (MutationResult, error) {
	op := string(kind)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return MutationResult{}, &StorageError{Op: op, Err: err}
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	const lockQuery = `SELECT id, balance::text FROM wallets WHERE user_id = $1 FOR UPDATE`
	var (
		walletID uuid.UUID
		balance  string
	)
	if err := tx.QueryRow(ctx, lockQuery, userID).Scan(&walletID, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MutationResult{}, ErrUserNotFound
		}
		return MutationResult{}, &StorageError{Op: op, Err: err}
	}

	previous, err := money.Parse(balance)
	if err != nil {
		return MutationResult{}, &StorageError{Op: op, Err: err}
	}

	var next money.Money
	switch kind {
	case TypeCredit:
		next = previous.Add(amount)
	case TypeDebit:
		if previous.LessThan(amount) {
			return MutationResult{}, &InsufficientFundsError{
				Current:   previous,
				Requested: amount,
				Shortfall: amount.Sub(previous),
			}
		}
		next = previous.Sub(amount)
	default:
		return MutationResult{}, fmt.Errorf("unknown transaction type %q", kind)
	}

	var (
		txID      int64
		createdAt time.Time
	)
	const insertQuery = `INSERT INTO transactions (wallet_id, amount, type, description)
        VALUES ($1, $2::numeric, $3, $4) RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertQuery, walletID, amount.String(), string(kind), description).Scan(&txID, &createdAt); err != nil {
		return MutationResult{}, &StorageError{Op: op, Err: err}
	}

	var updatedAt time.Time
	const updateQuery = `UPDATE wallets SET balance = $1::numeric, updated_at = now()
        WHERE id = $2 RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateQuery, next.String(), walletID).Scan(&updatedAt); err != nil {
		return MutationResult{}, &StorageError{Op: op, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, &StorageError{Op: op, Err: err}
	}

	return MutationResult{
		TransactionID:   txID,
		PreviousBalance: previous,
		NewBalance:      next,
		Description:     description,
		UpdatedAt:       updatedAt.UTC(),
	}, nil
}

// Transactions lists log entries newest-first, ties broken by insertion order.
func (s *PostgresStore) Transactions(ctx context.Context, userID string, typeFilter Type, limit int) ([]Transaction, error) {
	wallet, err := s.WalletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	query := `SELECT id, amount::text, type, COALESCE(description, ''), created_at
        FROM transactions WHERE wallet_id = $1`
	args := []any{wallet.ID}
	if typeFilter.Valid() {
		query += ` AND type = $2`
		args = append(args, string(typeFilter))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list transactions", Err: err}
	}
	defer rows.Close()

	transactions := make([]Transaction, 0, limit)
	for rows.Next() {
		var (
			t         Transaction
			amount    string
			kind      string
			createdAt time.Time
		)
		if err := rows.Scan(&t.ID, &amount, &kind, &t.Description, &createdAt); err != nil {
			return nil, &StorageError{Op: "list transactions", Err: err}
		}
		t.WalletID = wallet.ID
		t.Type = Type(kind)
		t.CreatedAt = createdAt.UTC()
		if t.Amount, err = money.Parse(amount); err != nil {
			return nil, &StorageError{Op: "list transactions", Err: err}
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list transactions", Err: err}
	}
	return transactions, nil
}

// Aggregate sums the full unfiltered log for the user's wallet, independent
// of any limit or filter a listing may apply.
func (s *PostgresStore) Aggregate(ctx context.Context, userID string) (Aggregate, error) {
	wallet, err := s.WalletOf(ctx, userID)
	if err != nil {
		return Aggregate{}, err
	}

	const query = `SELECT
        COALESCE(SUM(amount) FILTER (WHERE type = 'CREDIT'), 0)::text,
        COALESCE(SUM(amount) FILTER (WHERE type = 'DEBIT'), 0)::text,
        COUNT(*)
        FROM transactions WHERE wallet_id = $1`
	var (
		credits string
		debits  string
		count   int
	)
	if err := s.db.QueryRow(ctx, query, wallet.ID).Scan(&credits, &debits, &count); err != nil {
		return Aggregate{}, &StorageError{Op: "aggregate", Err: err}
	}

	agg := Aggregate{Count: count}
	if agg.TotalCredits, err = money.Parse(credits); err != nil {
		return Aggregate{}, &StorageError{Op: "aggregate", Err: err}
	}
	if agg.TotalDebits, err = money.Parse(debits); err != nil {
		return Aggregate{}, &StorageError{Op: "aggregate", Err: err}
	}
	return agg, nil
}

// retryable reports whether the error is lock contention worth another
// attempt: serialization_failure (40001), deadlock_detected (40P01) or
// lock_not_available (55P03).
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	default:
		return false
	}
}

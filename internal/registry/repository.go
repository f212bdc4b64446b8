package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/money"
)

// ErrDuplicateEmail occurs when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository persists users and guarantees the user-owns-one-wallet coupling.
type Repository interface {
	// Create inserts the user and a zero-balance wallet as one atomic unit.
	Create(ctx context.Context, user User) error
	// FindByID fetches a user, or ledger.ErrUserNotFound.
	FindByID(ctx context.Context, id string) (User, error)
	// List returns all users ordered by name ascending, annotated with
	// their current wallet balance.
	List(ctx context.Context) ([]UserWithBalance, error)
	// Delete removes the user, cascading to wallet and transactions.
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and their wallet in one transaction: a user must
// never exist without its wallet.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &ledger.StorageError{Op: "create user", Err: err}
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	_, err = tx.Exec(ctx, `INSERT INTO users (id, name, email, phone, created_at)
        VALUES ($1, $2, $3, $4, $5)`, userID, user.Name, user.Email, user.Phone, user.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return &ledger.StorageError{Op: "create user", Err: err}
	}

	_, err = tx.Exec(ctx, `INSERT INTO wallets (id, user_id, balance, updated_at)
        VALUES ($1, $2, 0, $3)`, uuid.New(), userID, user.CreatedAt.UTC())
	if err != nil {
		return &ledger.StorageError{Op: "create wallet", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &ledger.StorageError{Op: "create user", Err: err}
	}
	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ledger.ErrUserNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT id, name, email, phone, created_at FROM users WHERE id = $1`, userID)
	var (
		uid       uuid.UUID
		user      User
		createdAt time.Time
	)
	if err := row.Scan(&uid, &user.Name, &user.Email, &user.Phone, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ledger.ErrUserNotFound
		}
		return User{}, &ledger.StorageError{Op: "find user", Err: err}
	}
	user.ID = uid.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}

// List returns users by name ascending with wallet balances joined in a
// single query.
func (r *PostgresRepository) List(ctx context.Context) ([]UserWithBalance, error) {
	const query = `SELECT u.id, u.name, u.email, u.phone, u.created_at,
        COALESCE(w.balance, 0)::text
        FROM users u
        LEFT JOIN wallets w ON w.user_id = u.id
        ORDER BY u.name ASC, u.created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list users", Err: err}
	}
	defer rows.Close()

	users := make([]UserWithBalance, 0)
	for rows.Next() {
		var (
			uid       uuid.UUID
			u         UserWithBalance
			createdAt time.Time
			balance   string
		)
		if err := rows.Scan(&uid, &u.Name, &u.Email, &u.Phone, &createdAt, &balance); err != nil {
			return nil, &ledger.StorageError{Op: "list users", Err: err}
		}
		u.ID = uid.String()
		u.CreatedAt = createdAt.UTC()
		if u.WalletBalance, err = money.Parse(balance); err != nil {
			return nil, &ledger.StorageError{Op: "list users", Err: err}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "list users", Err: err}
	}
	return users, nil
}

// Delete removes a user; the schema cascades to the wallet and its
// transactions.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ledger.ErrUserNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return &ledger.StorageError{Op: "delete user", Err: err}
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

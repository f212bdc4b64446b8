package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

// ErrUserNotFound occurs when no wallet exists for the requested user.
var ErrUserNotFound = errors.New("user not found")

// DefaultHistoryLimit caps transaction listings when the caller supplies no
// usable limit. Non-positive or unparsable limits fall back to this value
// rather than returning nothing.
const DefaultHistoryLimit = 50

// Type classifies a transaction as increasing or decreasing the balance.
type Type string

const (
	// TypeCredit increases the wallet balance.
	TypeCredit Type = "CREDIT"
	// TypeDebit decreases the wallet balance.
	TypeDebit Type = "DEBIT"
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

// Wallet holds the authoritative balance for exactly one user.
type Wallet struct {
	ID        string
	UserID    string
	Balance   money.Money
	UpdatedAt time.Time
}

// Transaction is one immutable entry in a wallet's append-only log.
type Transaction struct {
	ID          int64
	WalletID    string
	Amount      money.Money
	Type        Type
	Description string
	CreatedAt   time.Time
}

// Signed returns the amount with the sign implied by the transaction type:
// positive for credits, negative for debits. Summing signed amounts over the
// full log yields the wallet balance.
func (t Transaction) Signed() money.Money {
	if t.Type == TypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// MutationResult reports the outcome of a successful credit or debit.
// Description is the text actually recorded on the transaction, including
// any default the service applied.
type MutationResult struct {
	TransactionID   int64
	PreviousBalance money.Money
	NewBalance      money.Money
	Description     string
	UpdatedAt       time.Time
}

// Aggregate totals the unfiltered transaction log for one wallet.
type Aggregate struct {
	TotalCredits money.Money
	TotalDebits  money.Money
	Count        int
}

// InsufficientFundsError rejects a debit that exceeds the current balance.
// The check happens inside the same atomic unit as the mutation, so no state
// changes when it fires.
type InsufficientFundsError struct {
	Current   money.Money
	Requested money.Money
	Shortfall money.Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s, short %s",
		e.Current, e.Requested, e.Shortfall)
}

// StorageError wraps a failure of the backing store's atomic commit.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is the contract implemented by ledger backends. Credit and Debit are
// the only operations allowed to change a balance; each executes the balance
// update and the log append as one atomic unit, serialized per wallet.
type Store interface {
	// WalletOf returns the wallet owned by the user, or ErrUserNotFound.
	WalletOf(ctx context.Context, userID string) (Wallet, error)

	// Credit increases the balance by amount (> 0) and appends a CREDIT
	// transaction.
	Credit(ctx context.Context, userID string, amount money.Money, description string) (MutationResult, error)

	// Debit decreases the balance by amount (> 0) and appends a DEBIT
	// transaction. Fails with *InsufficientFundsError when the balance does
	// not cover the amount, leaving wallet and log untouched.
	Debit(ctx context.Context, userID string, amount money.Money, description string) (MutationResult, error)

	// Transactions lists entries newest-first, optionally restricted to one
	// type. A non-positive limit falls back to DefaultHistoryLimit.
	Transactions(ctx context.Context, userID string, typeFilter Type, limit int) ([]Transaction, error)

	// Aggregate scans the full unfiltered log for the user's wallet.
	Aggregate(ctx context.Context, userID string) (Aggregate, error)
}

func validateAmount(amount money.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", money.ErrInvalidAmount, amount)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

// MemoryStore is a concurrency-safe in-memory ledger. Useful for unit tests;
// the single mutex makes every mutation an atomic unit.
type MemoryStore struct {
	mu           sync.RWMutex
	wallets      map[string]Wallet        // keyed by user id
	transactions map[string][]Transaction // keyed by wallet id, oldest first
	nextTxID     int64
}

// NewMemory creates an empty in-memory ledger store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		wallets:      make(map[string]Wallet),
		transactions: make(map[string][]Transaction),
	}
}

// CreateWallet provisions a zero-balance wallet for the user. A user owns at
// most one wallet.
func (s *MemoryStore) CreateWallet(_ context.Context, userID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[userID]; exists {
		return Wallet{}, errors.New("wallet already exists")
	}
	// The store outlives the call; never retain a caller-owned string.
	owner := strings.Clone(userID)
	w := Wallet{
		ID:        uuid.NewString(),
		UserID:    owner,
		Balance:   money.Zero(),
		UpdatedAt: time.Now().UTC(),
	}
	s.wallets[owner] = w
	return w, nil
}

// DeleteWallet removes the user's wallet and its entire transaction log.
func (s *MemoryStore) DeleteWallet(_ context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[userID]; ok {
		delete(s.transactions, w.ID)
		delete(s.wallets, userID)
	}
}

// WalletOf returns the wallet owned by the user.
func (s *MemoryStore) WalletOf(_ context.Context, userID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[userID]
	if !ok {
		return Wallet{}, ErrUserNotFound
	}
	return w, nil
}

// Credit applies a balance increase and appends a CREDIT transaction.
func (s *MemoryStore) Credit(_ context.Context, userID string, amount money.Money, description string) (MutationResult, error) {
	return s.mutate(userID, amount, TypeCredit, description)
}

// Debit applies a guarded balance decrease and appends a DEBIT transaction.
func (s *MemoryStore) Debit(_ context.Context, userID string, amount money.Money, description string) (MutationResult, error) {
	return s.mutate(userID, amount, TypeDebit, description)
}

func (s *MemoryStore) mutate(userID string, amount money.Money, kind Type, description string) (MutationResult, error) {
	if err := validateAmount(amount); err != nil {
		return MutationResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[userID]
	if !ok {
		return MutationResult{}, ErrUserNotFound
	}

	previous := w.Balance
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

	now := time.Now().UTC()
	s.nextTxID++
	entry := Transaction{
		ID:          s.nextTxID,
		WalletID:    w.ID,
		Amount:      amount,
		Type:        kind,
		Description: description,
		CreatedAt:   now,
	}

	w.Balance = next
	w.UpdatedAt = now
	// Key the write with the stored UserID, not the caller's string: map
	// assignment on an existing string key replaces the stored key, and a
	// caller-owned key (e.g. one aliasing a request buffer) must never end
	// up held by the map.
	s.wallets[w.UserID] = w
	s.transactions[w.ID] = append(s.transactions[w.ID], entry)

	return MutationResult{
		TransactionID:   entry.ID,
		PreviousBalance: previous,
		NewBalance:      next,
		Description:     description,
		UpdatedAt:       now,
	}, nil
}

// Transactions lists entries newest-first, ties broken by insertion order.
func (s *MemoryStore) Transactions(_ context.Context, userID string, typeFilter Type, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	limit = normalizeLimit(limit)

	log := s.transactions[w.ID]
	result := make([]Transaction, 0, limit)
	for i := len(log) - 1; i >= 0 && len(result) < limit; i-- {
		if typeFilter.Valid() && log[i].Type != typeFilter {
			continue
		}
		result = append(result, log[i])
	}
	return result, nil
}

// Aggregate sums the full unfiltered log for the user's wallet.
func (s *MemoryStore) Aggregate(_ context.Context, userID string) (Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[userID]
	if !ok {
		return Aggregate{}, ErrUserNotFound
	}

	agg := Aggregate{TotalCredits: money.Zero(), TotalDebits: money.Zero()}
	for _, t := range s.transactions[w.ID] {
		switch t.Type {
		case TypeCredit:
			agg.TotalCredits = agg.TotalCredits.Add(t.Amount)
		case TypeDebit:
			agg.TotalDebits = agg.TotalDebits.Add(t.Amount)
		}
		agg.Count++
	}
	return agg, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

func newTestWallet(t *testing.T, store *MemoryStore) string {
	t.Helper()
	userID := uuid.NewString()
	if _, err := store.CreateWallet(context.Background(), userID); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return userID
}

func signedSum(t *testing.T, store Store, userID string) money.Money {
	t.Helper()
	// Pull the full log; the count can exceed the default page size.
	txs, err := store.Transactions(context.Background(), userID, "", 1_000_000)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	sum := money.Zero()
	for _, tx := range txs {
		sum = sum.Add(tx.Signed())
	}
	return sum
}

func TestMemoryStore_BalanceMatchesLogAfterEveryMutation(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)

	steps := []struct {
		kind   Type
		amount string
	}{
		{TypeCredit, "100.00"},
		{TypeCredit, "0.01"},
		{TypeDebit, "50.50"},
		{TypeCredit, "25.25"},
		{TypeDebit, "74.76"},
	}

	for i, step := range steps {
		amount := money.MustParse(step.amount)
		var err error
		if step.kind == TypeCredit {
			_, err = store.Credit(ctx, userID, amount, "")
		} else {
			_, err = store.Debit(ctx, userID, amount, "")
		}
		if err != nil {
			t.Fatalf("step %d (%s %s): %v", i, step.kind, step.amount, err)
		}

		w, err := store.WalletOf(ctx, userID)
		if err != nil {
			t.Fatalf("wallet lookup: %v", err)
		}
		if sum := signedSum(t, store, userID); !w.Balance.Equal(sum) {
			t.Fatalf("step %d: balance %s != signed log sum %s", i, w.Balance, sum)
		}
	}

	w, _ := store.WalletOf(ctx, userID)
	if w.Balance.String() != "0.00" {
		t.Fatalf("final balance = %s, want 0.00", w.Balance)
	}
}

func TestMemoryStore_DebitInsufficientFundsLeavesStateUntouched(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)

	if _, err := store.Credit(ctx, userID, money.MustParse("30.00"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	before, _ := store.WalletOf(ctx, userID)

	_, err := store.Debit(ctx, userID, money.MustParse("30.01"), "")
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if insufficient.Current.String() != "30.00" || insufficient.Requested.String() != "30.01" || insufficient.Shortfall.String() != "0.01" {
		t.Fatalf("unexpected error detail: %+v", insufficient)
	}

	after, _ := store.WalletOf(ctx, userID)
	if !after.Balance.Equal(before.Balance) {
		t.Fatalf("balance changed on failed debit: %s -> %s", before.Balance, after.Balance)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("updated_at advanced on failed debit")
	}
	txs, _ := store.Transactions(ctx, userID, "", 0)
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
}

func TestMemoryStore_ConcurrentDebitsSerialize(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)
	if _, err := store.Credit(ctx, userID, money.MustParse("100.00"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Debit(ctx, userID, money.MustParse("80.00"), "")
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			var insufficient *InsufficientFundsError
			if !errors.As(err, &insufficient) {
				t.Fatalf("unexpected error: %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one failed debit, got %d", failures)
	}

	w, _ := store.WalletOf(ctx, userID)
	if w.Balance.String() != "20.00" {
		t.Fatalf("final balance = %s, want 20.00", w.Balance)
	}
}

func TestMemoryStore_RejectsNonPositiveAmounts(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)

	for _, amount := range []string{"0", "-5.00"} {
		if _, err := store.Credit(ctx, userID, money.MustParse(amount), ""); !errors.Is(err, money.ErrInvalidAmount) {
			t.Fatalf("credit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := store.Debit(ctx, userID, money.MustParse(amount), ""); !errors.Is(err, money.ErrInvalidAmount) {
			t.Fatalf("debit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	txs, _ := store.Transactions(ctx, userID, "", 0)
	if len(txs) != 0 {
		t.Fatalf("rejected mutations must not append, got %d entries", len(txs))
	}
}

func TestMemoryStore_UnknownUser(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.WalletOf(ctx, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.Credit(ctx, uuid.NewString(), money.MustParse("1.00"), ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.Transactions(ctx, uuid.NewString(), "", 10); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryStore_ListOrderingFilterAndLimit(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)

	for i := 1; i <= 5; i++ {
		if _, err := store.Credit(ctx, userID, money.MustParse(fmt.Sprintf("%d.00", i)), ""); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}
	if _, err := store.Debit(ctx, userID, money.MustParse("2.00"), ""); err != nil {
		t.Fatalf("debit: %v", err)
	}

	all, err := store.Transactions(ctx, userID, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID < all[i].ID {
			t.Fatalf("not newest-first at index %d", i)
		}
	}

	credits, err := store.Transactions(ctx, userID, TypeCredit, 3)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(credits) != 3 {
		t.Fatalf("limit not applied, got %d", len(credits))
	}
	for _, tx := range credits {
		if tx.Type != TypeCredit {
			t.Fatalf("filter leaked a %s entry", tx.Type)
		}
	}
}

func TestMemoryStore_LimitFallsBackToDefault(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)

	for i := 0; i < DefaultHistoryLimit+10; i++ {
		if _, err := store.Credit(ctx, userID, money.MustParse("1.00"), ""); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}

	for _, limit := range []int{0, -5} {
		txs, err := store.Transactions(ctx, userID, "", limit)
		if err != nil {
			t.Fatalf("list limit=%d: %v", limit, err)
		}
		if len(txs) != DefaultHistoryLimit {
			t.Fatalf("limit=%d returned %d entries, want %d", limit, len(txs), DefaultHistoryLimit)
		}
	}
}

func TestMemoryStore_AggregateIgnoresFilterAndLimit(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	userID := newTestWallet(t, store)

	if _, err := store.Credit(ctx, userID, money.MustParse("500.00"), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := store.Debit(ctx, userID, money.MustParse("249.50"), ""); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := store.Debit(ctx, userID, money.MustParse("0.50"), ""); err != nil {
		t.Fatalf("debit: %v", err)
	}

	// A narrow filtered listing must not affect aggregate totals.
	if _, err := store.Transactions(ctx, userID, TypeDebit, 1); err != nil {
		t.Fatalf("list: %v", err)
	}

	agg, err := store.Aggregate(ctx, userID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.TotalCredits.String() != "500.00" {
		t.Fatalf("total credits = %s", agg.TotalCredits)
	}
	if agg.TotalDebits.String() != "250.00" {
		t.Fatalf("total debits = %s", agg.TotalDebits)
	}
	if agg.Count != 3 {
		t.Fatalf("count = %d, want 3", agg.Count)
	}
}

package ledger

import (
	"context"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

// SeedWallet is a test helper that creates a wallet and funds it with an
// initial CREDIT when amount is positive. It only works with the in-memory
// store.
func SeedWallet(store Store, userID string, amount money.Money) {
	mem, ok := store.(*MemoryStore)
	if !ok {
		return
	}
	ctx := context.Background()
	if _, err := mem.WalletOf(ctx, userID); err != nil {
		_, _ = mem.CreateWallet(ctx, userID)
	}
	if amount.IsPositive() {
		_, _ = mem.Credit(ctx, userID, amount, "seed")
	}
}

package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/money"
)

// Service derives read views from the ledger. It never mutates state: the
// balance is read as stored (kept consistent with the log by the ledger's
// atomicity), not recomputed by summing.
type Service struct {
	store ledger.Store
}

// NewService builds a read-only query service over the ledger store.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// HistoryPage is a filtered, bounded slice of the transaction log. The
// FilteredCount counts only the returned entries and is deliberately a
// different scope from Summary.Count, which always covers the full log.
type HistoryPage struct {
	Transactions  []ledger.Transaction
	FilteredCount int
}

// Summary totals the full unfiltered log of one wallet.
type Summary struct {
	TotalCredits money.Money
	TotalDebits  money.Money
	Net          money.Money
	Count        int
}

// BalanceOf returns the wallet's current balance without recomputation.
func (s *Service) BalanceOf(ctx context.Context, userID string) (ledger.Wallet, error) {
	return s.store.WalletOf(ctx, userID)
}

// HistoryOf lists transactions newest-first, optionally filtered by type and
// capped by limit (default-fallback policy applies to non-positive limits).
func (s *Service) HistoryOf(ctx context.Context, userID string, typeFilter ledger.Type, limit int) (HistoryPage, error) {
	transactions, err := s.store.Transactions(ctx, userID, typeFilter, limit)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{Transactions: transactions, FilteredCount: len(transactions)}, nil
}

// SummaryOf scans the full log regardless of any filter or limit a history
// listing may have applied.
func (s *Service) SummaryOf(ctx context.Context, userID string) (Summary, error) {
	agg, err := s.store.Aggregate(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TotalCredits: agg.TotalCredits,
		TotalDebits:  agg.TotalDebits,
		Net:          agg.TotalCredits.Sub(agg.TotalDebits),
		Count:        agg.Count,
	}, nil
}

// ParseLimit applies the canonical default-fallback policy: unparsable or
// non-positive values mean the default page size, not an empty result.
func ParseLimit(raw string) int {
	if raw == "" {
		return ledger.DefaultHistoryLimit
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return ledger.DefaultHistoryLimit
	}
	return v
}

// ParseTypeFilter maps a raw query value onto a transaction type. Unknown
// values mean no filtering.
func ParseTypeFilter(raw string) ledger.Type {
	t := ledger.Type(strings.ToUpper(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return ""
}

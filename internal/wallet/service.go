package wallet

import (
	"context"
	"fmt"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/money"
	"github.com/paisa-pay/paisa_pay/internal/notification"
)

// Limits bound the amount a single transaction may move.
type Limits struct {
	Min money.Money
	Max money.Money
}

// DefaultLimits mirror the historical per-transaction bounds.
func DefaultLimits() Limits {
	return Limits{Min: money.MustParse("0.01"), Max: money.MustParse("10000.00")}
}

// Service is the only entry point allowed to change a wallet's balance. It
// validates amounts against the configured limits and delegates the atomic
// check-update-append to the ledger store.
type Service struct {
	store    ledger.Store
	notifier notification.Notifier
	limits   Limits
}

// NewService builds a wallet mutation service.
func NewService(store ledger.Store, notifier notification.Notifier, limits Limits) *Service {
	if !limits.Min.IsPositive() {
		limits = DefaultLimits()
	}
	return &Service{store: store, notifier: notifier, limits: limits}
}

// Credit adds amount to the user's wallet and appends a CREDIT transaction.
func (s *Service) Credit(ctx context.Context, userID string, amount money.Money, description string) (ledger.MutationResult, error) {
	if err := s.checkLimits(amount); err != nil {
		return ledger.MutationResult{}, err
	}
	if description == "" {
		description = fmt.Sprintf("Added %s to wallet", amount)
	}

	res, err := s.store.Credit(ctx, userID, amount, description)
	if err != nil {
		return ledger.MutationResult{}, err
	}

	s.notify(ctx, notification.KindWalletCredited, userID,
		fmt.Sprintf("Your wallet was credited %s, new balance %s", amount, res.NewBalance))
	return res, nil
}

// Debit deducts amount from the user's wallet and appends a DEBIT
// transaction. The insufficient-funds guard runs inside the store's atomic
// unit, never here, so two concurrent debits cannot both pass the check.
func (s *Service) Debit(ctx context.Context, userID string, amount money.Money, description string) (ledger.MutationResult, error) {
	if err := s.checkLimits(amount); err != nil {
		return ledger.MutationResult{}, err
	}
	if description == "" {
		description = fmt.Sprintf("Deducted %s from wallet", amount)
	}

	res, err := s.store.Debit(ctx, userID, amount, description)
	if err != nil {
		return ledger.MutationResult{}, err
	}

	s.notify(ctx, notification.KindWalletDebited, userID,
		fmt.Sprintf("Your wallet was debited %s, new balance %s", amount, res.NewBalance))
	return res, nil
}

func (s *Service) checkLimits(amount money.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", money.ErrInvalidAmount)
	}
	if amount.LessThan(s.limits.Min) {
		return fmt.Errorf("%w: amount must be at least %s", money.ErrInvalidAmount, s.limits.Min)
	}
	if s.limits.Max.LessThan(amount) {
		return fmt.Errorf("%w: amount exceeds maximum limit of %s", money.ErrInvalidAmount, s.limits.Max)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body})
}

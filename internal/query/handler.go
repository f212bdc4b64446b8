package query

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/api"
	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/registry"
)

// Handler exposes read-only wallet and transaction endpoints.
type Handler struct {
	service *Service
	users   *registry.Service
}

// NewHandler builds a query HTTP handler.
func NewHandler(service *Service, users *registry.Service) *Handler {
	return &Handler{service: service, users: users}
}

type transactionResponse struct {
	ID              int64  `json:"id"`
	Amount          string `json:"amount"`
	TransactionType string `json:"transaction_type"`
	Description     string `json:"description"`
	Timestamp       string `json:"timestamp"`
}

// Balance returns the current wallet balance for a user.
// GET /api/wallets/:userID/balance
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID := c.Params("userID")

	user, err := h.users.GetUser(c.UserContext(), userID)
	if err != nil {
		return api.Error(c, err)
	}
	wallet, err := h.service.BalanceOf(c.UserContext(), userID)
	if err != nil {
		return api.Error(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":    user.ID,
		"user":       user.Name,
		"balance":    wallet.Balance,
		"updated_at": wallet.UpdatedAt.Format(time.RFC3339Nano),
	})
}

// Transactions returns a user's transaction history with totals.
// GET /api/transactions/:userID?transaction_type=&limit=
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID := c.Params("userID")

	user, err := h.users.GetUser(c.UserContext(), userID)
	if err != nil {
		return api.Error(c, err)
	}

	filter := ParseTypeFilter(c.Query("transaction_type"))
	limit := ParseLimit(c.Query("limit"))

	wallet, err := h.service.BalanceOf(c.UserContext(), userID)
	if err != nil {
		return api.Error(c, err)
	}
	page, err := h.service.HistoryOf(c.UserContext(), userID, filter, limit)
	if err != nil {
		return api.Error(c, err)
	}
	summary, err := h.service.SummaryOf(c.UserContext(), userID)
	if err != nil {
		return api.Error(c, err)
	}

	items := make([]transactionResponse, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		items = append(items, transactionResponse{
			ID:              tx.ID,
			Amount:          tx.Amount.String(),
			TransactionType: string(tx.Type),
			Description:     tx.Description,
			Timestamp:       tx.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	filtersApplied := fiber.Map{
		"transaction_type": filterLabel(filter),
		"limit":            limit,
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Transactions retrieved successfully",
		"user": fiber.Map{
			"id":              user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"phone":           user.Phone,
			"current_balance": wallet.Balance,
		},
		"summary": fiber.Map{
			"total_transactions": summary.Count,
			"filtered_count":     page.FilteredCount,
			"total_credits":      summary.TotalCredits,
			"total_debits":       summary.TotalDebits,
			"net_balance":        summary.Net,
		},
		"filters_applied": filtersApplied,
		"transactions":    items,
	})
}

func filterLabel(filter ledger.Type) string {
	if filter == "" {
		return "ALL"
	}
	return string(filter)
}

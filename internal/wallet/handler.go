package wallet

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/paisa-pay/paisa_pay/internal/api"
	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/money"
	"github.com/paisa-pay/paisa_pay/internal/registry"
)

// Handler exposes the wallet mutation endpoint.
type Handler struct {
	service *Service
	users   *registry.Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, users *registry.Service) *Handler {
	return &Handler{service: service, users: users}
}

type updateRequest struct {
	Amount          money.Money `json:"amount"`
	TransactionType string      `json:"transaction_type"`
	Description     string      `json:"description"`
}

// Update credits or debits a user's wallet.
// PUT /api/wallets/:userID
func (h *Handler) Update(c *fiber.Ctx) error {
	// Params alias fiber's request buffer; the ledger layer may retain the
	// id past this handler, so it needs its own copy.
	userID := utils.CopyString(c.Params("userID"))

	user, err := h.users.GetUser(c.UserContext(), userID)
	if err != nil {
		return api.Error(c, err)
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request data", "details": err.Error()})
	}

	kind := ledger.Type(strings.ToUpper(strings.TrimSpace(req.TransactionType)))
	var res ledger.MutationResult
	switch kind {
	case ledger.TypeCredit:
		res, err = h.service.Credit(c.UserContext(), userID, req.Amount, req.Description)
	case ledger.TypeDebit:
		res, err = h.service.Debit(c.UserContext(), userID, req.Amount, req.Description)
	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "transaction_type must be CREDIT or DEBIT",
		})
	}
	if err != nil {
		return api.Error(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":          mutationMessage(kind, req.Amount, user.Name),
		"user":             user.Name,
		"user_id":          user.ID,
		"user_email":       user.Email,
		"transaction_type": string(kind),
		"amount":           req.Amount,
		"previous_balance": res.PreviousBalance,
		"new_balance":      res.NewBalance,
		"description":      res.Description,
		"transaction_id":   res.TransactionID,
		"timestamp":        res.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func mutationMessage(kind ledger.Type, amount money.Money, name string) string {
	if kind == ledger.TypeDebit {
		return "Deducted " + amount.String() + " from " + name + "'s wallet"
	}
	return "Added " + amount.String() + " to " + name + "'s wallet"
}

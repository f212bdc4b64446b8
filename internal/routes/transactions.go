package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/query"
)

// RegisterTransactionRoutes wires the read-only balance and history endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *query.Handler) {
	r.Get("/wallets/:userID/balance", h.Balance)
	r.Get("/transactions/:userID", h.Transactions)
}

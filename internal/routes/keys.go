package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/auth"
)

// RegisterKeyRoutes wires API key issuance and revocation.
func RegisterKeyRoutes(r fiber.Router, h *auth.Handler, limit fiber.Handler) {
	keys := r.Group("/keys", limit)
	keys.Post("/", h.Issue)
	keys.Delete("/:keyID", h.Revoke)
}

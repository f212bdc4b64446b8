package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/registry"
)

// RegisterUserRoutes wires the user registry endpoints.
func RegisterUserRoutes(r fiber.Router, h *registry.Handler) {
	users := r.Group("/users")
	users.Get("/", h.List)
	users.Post("/", h.Create)
	users.Delete("/:userID", h.Delete)
}

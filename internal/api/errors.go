// Package api holds shared HTTP response helpers for the transport layer.
// The core packages never import it; it maps their typed errors onto wire
// responses in exactly one place.
package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/money"
	"github.com/paisa-pay/paisa_pay/internal/registry"
)

// Error renders a core error as the appropriate HTTP response. Unknown
// errors become opaque 500s; details of storage failures stay in the logs.
func Error(c *fiber.Ctx, err error) error {
	var insufficient *ledger.InsufficientFundsError
	if errors.As(err, &insufficient) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":            "Insufficient funds",
			"current_balance":  insufficient.Current,
			"requested_amount": insufficient.Requested,
			"shortfall":        insufficient.Shortfall,
		})
	}

	switch {
	case errors.Is(err, money.ErrInvalidAmount), errors.Is(err, registry.ErrInvalidUser):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrUserNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, registry.ErrDuplicateEmail):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "User with this email already exists"})
	default:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

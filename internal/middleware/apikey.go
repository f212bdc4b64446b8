package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/auth"
)

const (
	apiKeyHeader = "X-API-Key"

	// LocalsAPIKeyID is the fiber locals slot holding the authenticated
	// key's id.
	LocalsAPIKeyID = "api_key_id"
	// LocalsAPIKeyOwner holds the authenticated key's owner id.
	LocalsAPIKeyOwner = "api_key_owner"
)

// APIKeyAuth rejects requests that do not carry a valid X-API-Key header.
func APIKeyAuth(keys *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(apiKeyHeader)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing "+apiKeyHeader+" header")
		}

		key, err := keys.Verify(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrKeyExpired):
				return fiber.NewError(http.StatusUnauthorized, "API key expired")
			case errors.Is(err, auth.ErrKeyRevoked):
				return fiber.NewError(http.StatusUnauthorized, "API key revoked")
			default:
				return fiber.NewError(http.StatusUnauthorized, "invalid API key")
			}
		}

		c.Locals(LocalsAPIKeyID, key.ID)
		c.Locals(LocalsAPIKeyOwner, key.OwnerID)
		return c.Next()
	}
}

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes API key management endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an API key HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type issueKeyRequest struct {
	OwnerID    string `json:"owner_id"`
	Label      string `json:"label"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// Issue creates a new API key and returns the token exactly once.
// POST /api/keys
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request data", "details": err.Error()})
	}
	// The Postgres repository stores owner_id as a UUID column; reject bad
	// input here instead of surfacing an opaque 500.
	if _, err := uuid.Parse(req.OwnerID); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "owner_id must be a UUID"})
	}

	var ttl time.Duration
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	token, key, err := h.service.Issue(c.UserContext(), IssueInput{
		OwnerID: req.OwnerID,
		Label:   req.Label,
		TTL:     ttl,
	})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	resp := fiber.Map{
		"message": "API key created. Store the token now: it is not shown again.",
		"key_id":  key.ID,
		"token":   token,
		"label":   key.Label,
	}
	if key.ExpiresAt != nil {
		resp["expires_at"] = key.ExpiresAt.Format(time.RFC3339Nano)
	}
	return c.Status(http.StatusCreated).JSON(resp)
}

// Revoke deactivates an API key.
// DELETE /api/keys/:keyID
func (h *Handler) Revoke(c *fiber.Ctx) error {
	if err := h.service.Revoke(c.UserContext(), c.Params("keyID")); err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "API key not found"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "API key revoked"})
}

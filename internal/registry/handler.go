package registry

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Handler exposes user registry HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a registry HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	WalletBalance string    `json:"wallet_balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// respondError maps registry errors onto HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidUser):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDuplicateEmail):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "User with this email already exists"})
	case errors.Is(err, ledger.ErrUserNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// List returns all users with their wallet balances, ordered by name.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:            u.ID,
			Name:          u.Name,
			Email:         u.Email,
			Phone:         u.Phone,
			WalletBalance: u.WalletBalance.String(),
			CreatedAt:     u.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Users retrieved successfully",
		"count":   len(out),
		"users":   out,
	})
}

// Create registers a user; the zero-balance wallet comes with it.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.CreateUser(c.UserContext(), CreateInput(req))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user": userResponse{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			Phone:         user.Phone,
			WalletBalance: "0.00",
			CreatedAt:     user.CreatedAt,
		},
	})
}

// Delete removes a user along with their wallet and transactions.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), c.Params("userID")); err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "User deleted"})
}

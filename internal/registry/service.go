package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidUser occurs when user details fail validation.
var ErrInvalidUser = errors.New("invalid user")

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// E.164-style: optional +, 8 to 15 digits, no leading zero.
	phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)
)

// Service manages the user lifecycle. CreateUser is the single place a
// wallet comes into existence; there is no implicit creation hook anywhere
// else.
type Service struct {
	repo Repository
}

// NewService creates a user registry service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures the details needed to register a user.
type CreateInput struct {
	Name  string
	Email string
	Phone string
}

// CreateUser validates the input and registers the user together with their
// zero-balance wallet in one unit of work.
func (s *Service) CreateUser(ctx context.Context, input CreateInput) (User, error) {
	user := User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:     strings.TrimSpace(input.Phone),
		CreatedAt: time.Now().UTC(),
	}

	if err := validate(user); err != nil {
		return User{}, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// ListUsers returns all users ordered by name ascending, each annotated with
// their current wallet balance.
func (s *Service) ListUsers(ctx context.Context) ([]UserWithBalance, error) {
	return s.repo.List(ctx)
}

// DeleteUser removes a user; the wallet and its transactions go with it.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validate(user User) error {
	if user.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if len(user.Name) > 100 {
		return fmt.Errorf("%w: name must be at most 100 characters", ErrInvalidUser)
	}
	if !emailPattern.MatchString(user.Email) {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidUser, user.Email)
	}
	if !phonePattern.MatchString(user.Phone) {
		return fmt.Errorf("%w: phone must be digits with optional leading +, e.g. +9779812345678", ErrInvalidUser)
	}
	return nil
}

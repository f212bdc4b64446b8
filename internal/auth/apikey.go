package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidKey occurs when a presented API key does not verify.
	ErrInvalidKey = errors.New("invalid API key")
	// ErrKeyExpired occurs when a key verifies but is past its expiry.
	ErrKeyExpired = errors.New("API key expired")
	// ErrKeyRevoked occurs when a key has been deactivated.
	ErrKeyRevoked = errors.New("API key revoked")
)

// APIKey is a stored credential. Only the bcrypt hash of the secret is kept;
// the plaintext is shown once at issuance.
type APIKey struct {
	ID         string
	OwnerID    string
	Label      string
	SecretHash []byte
	Active     bool
	ExpiresAt  *time.Time
	LastUsed   *time.Time
	CreatedAt  time.Time
}

// Repository persists API keys.
type Repository interface {
	Create(ctx context.Context, key APIKey) error
	FindByID(ctx context.Context, id string) (APIKey, error)
	TouchLastUsed(ctx context.Context, id string, when time.Time) error
	Deactivate(ctx context.Context, id string) error
}

// Service issues and verifies API keys. Tokens are "keyID.secret"; lookup is
// by key id, then the secret is checked against the stored bcrypt hash.
type Service struct {
	repo Repository
}

// NewService creates an API-key service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IssueInput describes the key to mint.
type IssueInput struct {
	OwnerID string
	Label   string
	TTL     time.Duration // zero means no expiry
}

// Issue mints a new key and returns the one-time plaintext token alongside
// the stored record.
func (s *Service) Issue(ctx context.Context, input IssueInput) (string, APIKey, error) {
	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", APIKey{}, err
	}

	key := APIKey{
		ID:         uuid.NewString(),
		OwnerID:    input.OwnerID,
		Label:      input.Label,
		SecretHash: hash,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if input.TTL > 0 {
		expires := key.CreatedAt.Add(input.TTL)
		key.ExpiresAt = &expires
	}

	if err := s.repo.Create(ctx, key); err != nil {
		return "", APIKey{}, err
	}
	return key.ID + "." + secret, key, nil
}

// Verify checks a presented token and records its use. Returns the matching
// key on success.
func (s *Service) Verify(ctx context.Context, token string) (APIKey, error) {
	id, secret, found := strings.Cut(token, ".")
	if !found || id == "" || secret == "" {
		return APIKey{}, ErrInvalidKey
	}

	key, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return APIKey{}, ErrInvalidKey
	}
	if !key.Active {
		return APIKey{}, ErrKeyRevoked
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now().UTC()) {
		return APIKey{}, ErrKeyExpired
	}
	if bcrypt.CompareHashAndPassword(key.SecretHash, []byte(secret)) != nil {
		return APIKey{}, ErrInvalidKey
	}

	// Last-used tracking is best effort; a failure must not reject the call.
	_ = s.repo.TouchLastUsed(ctx, key.ID, time.Now().UTC())
	return key, nil
}

// Revoke deactivates a key. Unknown ids report ErrInvalidKey.
func (s *Service) Revoke(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return ErrInvalidKey
		}
		return err
	}
	return nil
}

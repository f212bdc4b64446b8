package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errKeyNotFound = errors.New("API key not found")

// PostgresRepository stores API keys in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed API key repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a key record.
func (r *PostgresRepository) Create(ctx context.Context, key APIKey) error {
	keyID, err := uuid.Parse(key.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(key.OwnerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO api_keys (id, owner_id, label, secret_hash, is_active, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		keyID, ownerID, key.Label, key.SecretHash, key.Active, key.ExpiresAt, key.CreatedAt.UTC())
	return err
}

// FindByID fetches a key by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (APIKey, error) {
	keyID, err := uuid.Parse(id)
	if err != nil {
		return APIKey{}, errKeyNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT id, owner_id, label, secret_hash, is_active, expires_at, last_used, created_at
        FROM api_keys WHERE id = $1`, keyID)
	var (
		kid       uuid.UUID
		ownerID   uuid.UUID
		key       APIKey
		createdAt time.Time
	)
	if err := row.Scan(&kid, &ownerID, &key.Label, &key.SecretHash, &key.Active, &key.ExpiresAt, &key.LastUsed, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, errKeyNotFound
		}
		return APIKey{}, err
	}
	key.ID = kid.String()
	key.OwnerID = ownerID.String()
	key.CreatedAt = createdAt.UTC()
	return key, nil
}

// TouchLastUsed records when the key last authenticated a request.
func (r *PostgresRepository) TouchLastUsed(ctx context.Context, id string, when time.Time) error {
	keyID, err := uuid.Parse(id)
	if err != nil {
		return errKeyNotFound
	}
	_, err = r.db.Exec(ctx, `UPDATE api_keys SET last_used = $1 WHERE id = $2`, when.UTC(), keyID)
	return err
}

// Deactivate revokes a key.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	keyID, err := uuid.Parse(id)
	if err != nil {
		return errKeyNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE api_keys SET is_active = FALSE WHERE id = $1`, keyID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errKeyNotFound
	}
	return nil
}

type memoryRepository struct {
	mu   sync.RWMutex
	keys map[string]APIKey
}

// NewMemoryRepository builds an in-memory API key store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{keys: make(map[string]APIKey)}
}

func (r *memoryRepository) Create(_ context.Context, key APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[key.ID]; exists {
		return errors.New("API key exists")
	}
	r.keys[key.ID] = key
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[id]
	if !ok {
		return APIKey{}, errKeyNotFound
	}
	return key, nil
}

// Updates below re-key writes with the stored key.ID rather than the
// caller's id: assigning to an existing string key replaces the stored key,
// and the caller's id may alias a transport buffer.

func (r *memoryRepository) TouchLastUsed(_ context.Context, id string, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok {
		return errKeyNotFound
	}
	key.LastUsed = &when
	r.keys[key.ID] = key
	return nil
}

func (r *memoryRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok {
		return errKeyNotFound
	}
	key.Active = false
	r.keys[key.ID] = key
	return nil
}

package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
	store *ledger.MemoryStore
}

// NewMemoryRepository builds an in-memory user store for testing. Wallets are
// created in the supplied in-memory ledger store so the registry and the
// ledger stay coupled the way the Postgres schema couples them.
func NewMemoryRepository(store *ledger.MemoryStore) Repository {
	return &memoryRepository{users: make(map[string]User), store: store}
}

func (r *memoryRepository) Create(ctx context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	if _, err := r.store.CreateWallet(ctx, user.ID); err != nil {
		return &ledger.StorageError{Op: "create wallet", Err: err}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ledger.ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) List(ctx context.Context) ([]UserWithBalance, error) {
	r.mu.RLock()
	users := make([]UserWithBalance, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, UserWithBalance{User: u})
	}
	r.mu.RUnlock()

	for i := range users {
		w, err := r.store.WalletOf(ctx, users[i].ID)
		if err != nil {
			continue // balance stays 0.00 when the wallet is missing
		}
		users[i].WalletBalance = w.Balance
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ledger.ErrUserNotFound
	}
	delete(r.users, id)
	r.store.DeleteWallet(ctx, id)
	return nil
}

package auth

import (
	"context"
	"sync"

	"github.com/questhub/questhub/internal/shared"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account // keyed by email
	nextID   AccountID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account), nextID: 1}
}

// AddAccount stores a new account, assigning the next id.
func (m *MemoryStore) AddAccount(ctx context.Context, params AddAccountParams) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[params.Email]; exists {
		return Account{}, shared.ErrDuplicateAccount
	}
	account := Account{ID: m.nextID, Email: params.Email, PasswordHash: params.PasswordHash}
	m.accounts[params.Email] = account
	m.nextID++
	return account, nil
}

// GetAccount retrieves an account by email.
func (m *MemoryStore) GetAccount(ctx context.Context, email string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[email]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return account, nil
}

var _ Store = (*MemoryStore)(nil)

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"currency-exchange-api/internal/model"
)

// MemoryAccountRepository keeps accounts in process memory.
// It stores clones so callers never share an instance with the map.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*model.Account
	now      func() time.Time
}

// NewMemoryAccountRepository creates an empty in-memory repository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[uuid.UUID]*model.Account),
		now:      time.Now,
	}
}

// Save inserts or replaces the account when its version matches the stored one
func (r *MemoryAccountRepository) Save(ctx context.Context, account *model.Account) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var storedVersion int64
	if stored, ok := r.accounts[account.ID]; ok {
		storedVersion = stored.Version
	}
	if storedVersion != account.Version {
		return uuid.Nil, ErrConcurrentUpdate
	}

	now := r.now().UTC()
	if account.Version == 0 {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.Version++

	r.accounts[account.ID] = account.Clone()
	return account.ID, nil
}

// FindByID returns a copy of the stored account
func (r *MemoryAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

// Ping always succeeds
func (r *MemoryAccountRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

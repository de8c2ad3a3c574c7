package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"currency-exchange-api/internal/model"
)

const accountKeyPrefix = "account:"

// stringGetter is satisfied by both *goredis.Client and *goredis.Tx
type stringGetter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// redisAccount is the JSON document stored under each account key
type redisAccount struct {
	ID        uuid.UUID                  `json:"id"`
	FirstName string                     `json:"first_name"`
	LastName  string                     `json:"last_name"`
	Balances  map[string]decimal.Decimal `json:"balances"`
	Version   int64                      `json:"version"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// RedisAccountRepository stores each account as a JSON document in Redis.
// Writes use WATCH/MULTI so a stale version never overwrites a newer one.
type RedisAccountRepository struct {
	client *goredis.Client
	now    func() time.Time
}

// NewRedisAccountRepository creates a repository backed by the provided Redis client
func NewRedisAccountRepository(client *goredis.Client) *RedisAccountRepository {
	return &RedisAccountRepository{client: client, now: time.Now}
}

// Save writes the account when the stored version equals account.Version
func (r *RedisAccountRepository) Save(ctx context.Context, account *model.Account) (uuid.UUID, error) {
	key := accountKey(account.ID)
	now := r.now().UTC()

	doc := redisAccount{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Balances:  make(map[string]decimal.Decimal),
		Version:   account.Version + 1,
		CreatedAt: account.CreatedAt,
		UpdatedAt: now,
	}
	if account.Version == 0 {
		doc.CreatedAt = now
	}
	for currency, amount := range account.Balances() {
		doc.Balances[currency.String()] = amount
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode account: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *goredis.Tx) error {
		stored, err := r.load(ctx, tx, key)
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return err
		}

		var storedVersion int64
		if stored != nil {
			storedVersion = stored.Version
		}
		if storedVersion != account.Version {
			return ErrConcurrentUpdate
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, goredis.TxFailedErr) {
			return uuid.Nil, ErrConcurrentUpdate
		}
		if errors.Is(err, ErrConcurrentUpdate) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("failed to save account: %w", err)
	}

	account.Version = doc.Version
	account.CreatedAt = doc.CreatedAt
	account.UpdatedAt = doc.UpdatedAt

	return account.ID, nil
}

// FindByID retrieves an account by its ID
func (r *RedisAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	doc, err := r.load(ctx, r.client, accountKey(id))
	if err != nil {
		return nil, err
	}

	balances := make(map[model.Currency]decimal.Decimal, len(doc.Balances))
	for code, amount := range doc.Balances {
		balances[model.Currency(code)] = amount
	}

	return model.RestoreAccount(doc.ID, doc.FirstName, doc.LastName, balances, doc.Version, doc.CreatedAt, doc.UpdatedAt), nil
}

// Ping checks Redis connectivity
func (r *RedisAccountRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAccountRepository) load(ctx context.Context, c stringGetter, key string) (*redisAccount, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var doc redisAccount
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	return &doc, nil
}

func accountKey(id uuid.UUID) string {
	return accountKeyPrefix + id.String()
}

package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-exchange-api/internal/model"
)

func newRedisRepository(t *testing.T) (*RedisAccountRepository, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAccountRepository(client), server
}

func TestRedisAccountRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo, server := newRedisRepository(t)
	account := newAccount(t, "10")
	require.NoError(t, account.DepositFunds("USD", decimal.RequireFromString("0.5")))

	id, err := repo.Save(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, account.ID, id)
	assert.Equal(t, int64(1), account.Version)
	assert.True(t, server.Exists("account:"+id.String()))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", found.FirstName)
	assert.Equal(t, int64(1), found.Version)
	assert.Equal(t, "10", found.Balance(model.HomeCurrency).String())
	assert.Equal(t, "0.5", found.Balance("USD").String())
	assert.Equal(t, account.CreatedAt.Unix(), found.CreatedAt.Unix())
}

func TestRedisAccountRepository_FindByID_NotFound(t *testing.T) {
	repo, _ := newRedisRepository(t)

	account, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Nil(t, account)
}

func TestRedisAccountRepository_StaleVersion(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisRepository(t)
	account := newAccount(t, "10")
	_, err := repo.Save(ctx, account)
	require.NoError(t, err)

	first, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)

	require.NoError(t, first.WithdrawFunds(model.HomeCurrency, decimal.NewFromInt(1)))
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	require.NoError(t, second.WithdrawFunds(model.HomeCurrency, decimal.NewFromInt(2)))
	_, err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	stored, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "9", stored.Balance(model.HomeCurrency).String())
	assert.Equal(t, int64(2), stored.Version)
}

func TestRedisAccountRepository_CorruptDocument(t *testing.T) {
	repo, server := newRedisRepository(t)
	id := uuid.New()
	require.NoError(t, server.Set("account:"+id.String(), "not json"))

	_, err := repo.FindByID(context.Background(), id)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
}

func TestRedisAccountRepository_Ping(t *testing.T) {
	repo, server := newRedisRepository(t)

	assert.NoError(t, repo.Ping(context.Background()))

	server.Close()
	assert.Error(t, repo.Ping(context.Background()))
}

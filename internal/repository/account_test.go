package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-exchange-api/internal/model"
)

func newMockRepository(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccountRepository(db), mock
}

func TestAccountRepository_Save_NewAccount(t *testing.T) {
	repo, mock := newMockRepository(t)
	account := newAccount(t, "10")
	now := time.Date(2021, 3, 9, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs(account.ID, "Jane", "Doe").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO account_balances").
		WithArgs(account.ID, "PLN", decimal.NewFromInt(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.Save(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, account.ID, id)
	assert.Equal(t, int64(1), account.Version)
	assert.Equal(t, now, account.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Save_ExistingAccount(t *testing.T) {
	repo, mock := newMockRepository(t)
	account := newAccount(t, "10")
	account.Version = 1
	require.NoError(t, account.WithdrawFunds(model.HomeCurrency, decimal.RequireFromString("3.9112")))
	require.NoError(t, account.DepositFunds("USD", decimal.NewFromInt(1)))
	now := time.Date(2021, 3, 9, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE accounts").
		WithArgs(account.ID, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO account_balances").
		WithArgs(account.ID, "PLN", decimal.RequireFromString("6.0888")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO account_balances").
		WithArgs(account.ID, "USD", decimal.NewFromInt(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Save(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, int64(2), account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Save_StaleVersion(t *testing.T) {
	repo, mock := newMockRepository(t)
	account := newAccount(t, "10")
	account.Version = 4

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE accounts").
		WithArgs(account.ID, int64(4)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), account)

	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.Equal(t, int64(4), account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Save_BalanceFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)
	account := newAccount(t, "10")
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO accounts").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO account_balances").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), account)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store PLN balance")
	assert.Equal(t, int64(0), account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	now := time.Date(2021, 3, 9, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM accounts").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "version", "created_at", "updated_at"}).
			AddRow(id.String(), "Jane", "Doe", int64(3), now, now))
	mock.ExpectQuery("FROM account_balances").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"currency", "amount"}).
			AddRow("PLN", "9.9309").
			AddRow("USD", "0"))

	account, err := repo.FindByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "Jane", account.FirstName)
	assert.Equal(t, int64(3), account.Version)
	assert.Equal(t, "9.9309", account.Balance(model.HomeCurrency).String())
	assert.True(t, account.Balance("USD").IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("FROM accounts").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "version", "created_at", "updated_at"}))

	account, err := repo.FindByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Nil(t, account)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Migrate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"currency-exchange-api/internal/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id         UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		version    BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS account_balances (
		account_id UUID NOT NULL REFERENCES accounts (id),
		currency   CHAR(3) NOT NULL,
		amount     NUMERIC NOT NULL CHECK (amount >= 0),
		PRIMARY KEY (account_id, currency)
	);
`

// AccountRepository stores accounts in PostgreSQL
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Migrate creates the account tables when they do not exist
func (r *AccountRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate account schema: %w", err)
	}
	return nil
}

// Save inserts a new account or updates an existing one.
// The update only applies when the stored version still equals account.Version.
func (r *AccountRepository) Save(ctx context.Context, account *model.Account) (uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if tx.Commit() succeeds

	var createdAt, updatedAt time.Time
	if account.Version == 0 {
		createdAt, updatedAt, err = r.insertAccount(ctx, tx, account)
	} else {
		createdAt, updatedAt, err = r.bumpVersion(ctx, tx, account)
	}
	if err != nil {
		return uuid.Nil, err
	}

	if err := r.upsertBalances(ctx, tx, account); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Version++
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	return account.ID, nil
}

func (r *AccountRepository) insertAccount(ctx context.Context, tx *sql.Tx, account *model.Account) (time.Time, time.Time, error) {
	query := `
		INSERT INTO accounts (id, first_name, last_name, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at
	`

	var createdAt, updatedAt time.Time
	err := tx.QueryRowContext(ctx, query, account.ID, account.FirstName, account.LastName).Scan(&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, time.Time{}, ErrConcurrentUpdate
		}
		return time.Time{}, time.Time{}, fmt.Errorf("failed to create account: %w", err)
	}

	return createdAt, updatedAt, nil
}

func (r *AccountRepository) bumpVersion(ctx context.Context, tx *sql.Tx, account *model.Account) (time.Time, time.Time, error) {
	query := `
		UPDATE accounts
		SET version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING created_at, updated_at
	`

	var createdAt, updatedAt time.Time
	err := tx.QueryRowContext(ctx, query, account.ID, account.Version).Scan(&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, time.Time{}, ErrConcurrentUpdate
		}
		return time.Time{}, time.Time{}, fmt.Errorf("failed to update account: %w", err)
	}

	return createdAt, updatedAt, nil
}

func (r *AccountRepository) upsertBalances(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	query := `
		INSERT INTO account_balances (account_id, currency, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, currency) DO UPDATE SET amount = EXCLUDED.amount
	`

	balances := account.Balances()
	currencies := make([]model.Currency, 0, len(balances))
	for currency := range balances {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	for _, currency := range currencies {
		if _, err := tx.ExecContext(ctx, query, account.ID, currency.String(), balances[currency]); err != nil {
			return fmt.Errorf("failed to store %s balance: %w", currency, err)
		}
	}

	return nil
}

// FindByID retrieves an account and its balances
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `
		SELECT id, first_name, last_name, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var (
		accountID            uuid.UUID
		firstName, lastName  string
		version              int64
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&accountID,
		&firstName,
		&lastName,
		&version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	balances, err := r.getBalances(ctx, id)
	if err != nil {
		return nil, err
	}

	return model.RestoreAccount(accountID, firstName, lastName, balances, version, createdAt, updatedAt), nil
}

func (r *AccountRepository) getBalances(ctx context.Context, id uuid.UUID) (map[model.Currency]decimal.Decimal, error) {
	query := `
		SELECT currency, amount
		FROM account_balances
		WHERE account_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[model.Currency]decimal.Decimal)
	for rows.Next() {
		var (
			currency string
			amount   decimal.Decimal
		)
		if err := rows.Scan(&currency, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[model.Currency(currency)] = amount
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}

	return balances, nil
}

// Ping checks database connectivity
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details []ValidationError `json:"details,omitempty"`
}

// OpenAccountResponse represents the response after opening an account
type OpenAccountResponse struct {
	ID uuid.UUID `json:"id"`
}

// AccountResponse represents the response for getting an account
type AccountResponse struct {
	ID        uuid.UUID                    `json:"id"`
	FirstName string                       `json:"first_name"`
	LastName  string                       `json:"last_name"`
	Balances  map[Currency]decimal.Decimal `json:"balances"`
}

// NewAccountResponse maps an account to its API representation
func NewAccountResponse(account *Account) *AccountResponse {
	return &AccountResponse{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Balances:  account.Balances(),
	}
}

// CurrenciesResponse lists the currencies accepted by buy and sell
type CurrenciesResponse struct {
	HomeCurrency Currency   `json:"home_currency"`
	Supported    []Currency `json:"supported"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Store     StoreHealth `json:"store"`
}

// StoreHealth represents account store connectivity status
type StoreHealth struct {
	Backend string `json:"backend"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Common error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	ErrCodeCurrencyNotSupported = "CURRENCY_NOT_SUPPORTED"
	ErrCodeRateUnavailable      = "RATE_UNAVAILABLE"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeConflict             = "CONFLICT"
)

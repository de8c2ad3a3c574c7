package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenAccountCommand opens an account funded with OpeningBalance in the home currency
type OpenAccountCommand struct {
	FirstName      string
	LastName       string
	OpeningBalance decimal.Decimal
}

// BuyCurrencyCommand buys Amount of Currency paying in the home currency at the ask rate
type BuyCurrencyCommand struct {
	AccountID uuid.UUID
	Currency  Currency
	Amount    decimal.Decimal
}

// SellCurrencyCommand sells Amount of Currency for the home currency at the bid rate
type SellCurrencyCommand struct {
	AccountID uuid.UUID
	Currency  Currency
	Amount    decimal.Decimal
}

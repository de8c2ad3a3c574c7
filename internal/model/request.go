package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var amountRangeMessage = fmt.Sprintf("amount must have at most %d integer and %d fractional digits",
	MaxAmountIntegerDigits, MaxAmountFractionalDigits)

// OpenAccountRequest represents the request to open a new account
type OpenAccountRequest struct {
	FirstName      string           `json:"first_name" validate:"required,notblank,max=100"`
	LastName       string           `json:"last_name" validate:"required,notblank,max=100"`
	OpeningBalance *decimal.Decimal `json:"opening_balance" validate:"required"`
}

// Validate checks the constraints the struct tags cannot express
func (r *OpenAccountRequest) Validate() error {
	if r.OpeningBalance == nil {
		return nil
	}
	if r.OpeningBalance.IsNegative() {
		return &ValidationError{
			Field:   "opening_balance",
			Message: "opening balance cannot be negative",
		}
	}
	if err := CheckAmountRange(*r.OpeningBalance); err != nil {
		return &ValidationError{
			Field:   "opening_balance",
			Message: amountRangeMessage,
		}
	}
	return nil
}

// ToCommand converts the request into an OpenAccountCommand
func (r *OpenAccountRequest) ToCommand() OpenAccountCommand {
	cmd := OpenAccountCommand{
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
	if r.OpeningBalance != nil {
		cmd.OpeningBalance = *r.OpeningBalance
	}
	return cmd
}

// ExchangeCurrencyRequest is the body of both buy and sell requests
type ExchangeCurrencyRequest struct {
	CurrencyCode string          `json:"currency_code" validate:"required,len=3,alpha"`
	Amount       decimal.Decimal `json:"amount"`

	currency Currency
}

// Validate checks the amount and resolves the currency code
func (r *ExchangeCurrencyRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return &ValidationError{
			Field:   "amount",
			Message: "amount must be positive",
		}
	}
	if err := CheckAmountRange(r.Amount); err != nil {
		return &ValidationError{
			Field:   "amount",
			Message: amountRangeMessage,
		}
	}

	currency, err := ParseCurrency(r.CurrencyCode)
	if err != nil {
		return &ValidationError{
			Field:   "currency_code",
			Message: "currency code is not a valid ISO 4217 code",
		}
	}
	r.currency = currency

	return nil
}

// Currency returns the currency resolved by Validate
func (r *ExchangeCurrencyRequest) Currency() Currency {
	return r.currency
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

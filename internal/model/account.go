package model

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrInvalidName       = errors.New("name must not be blank")
	ErrInvalidAmount     = errors.New("negative amount operations are not allowed")
	ErrInsufficientFunds = errors.New("insufficient funds on account")
	ErrAmountOutOfRange  = errors.New("amount has too many digits")
)

// Amount precision limits
const (
	MaxAmountIntegerDigits    = 30
	MaxAmountFractionalDigits = 18

	maxCoefficientBits = 160 // 10^48 < 2^160
)

// Account represents a currency exchange account.
// Balances are owned by the account and only change through DepositFunds and WithdrawFunds.
type Account struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	balances map[Currency]decimal.Decimal
}

// NewAccount opens a new account funded in the home currency
func NewAccount(firstName, lastName string, openingBalance decimal.Decimal) (*Account, error) {
	if err := validateName(firstName); err != nil {
		return nil, err
	}
	if err := validateName(lastName); err != nil {
		return nil, err
	}
	if err := validateAmount(openingBalance); err != nil {
		return nil, err
	}
	if err := CheckAmountRange(openingBalance); err != nil {
		return nil, err
	}

	return &Account{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		balances: map[Currency]decimal.Decimal{
			HomeCurrency: openingBalance,
		},
	}, nil
}

// RestoreAccount rebuilds an account from persisted state
func RestoreAccount(id uuid.UUID, firstName, lastName string, balances map[Currency]decimal.Decimal, version int64, createdAt, updatedAt time.Time) *Account {
	account := &Account{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		balances:  make(map[Currency]decimal.Decimal, len(balances)),
	}
	for currency, amount := range balances {
		account.balances[currency] = amount
	}
	if _, ok := account.balances[HomeCurrency]; !ok {
		account.balances[HomeCurrency] = decimal.Zero
	}
	return account
}

// DepositFunds adds amount to the balance held in currency
func (a *Account) DepositFunds(currency Currency, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	a.balances[currency] = a.Balance(currency).Add(amount)
	return nil
}

// WithdrawFunds subtracts amount from the balance held in currency
func (a *Account) WithdrawFunds(currency Currency, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if err := a.CheckSufficientFunds(currency, amount); err != nil {
		return err
	}
	a.balances[currency] = a.Balance(currency).Sub(amount)
	return nil
}

// CheckSufficientFunds returns ErrInsufficientFunds when the balance in currency is below amount
func (a *Account) CheckSufficientFunds(currency Currency, amount decimal.Decimal) error {
	if !a.HasSufficientFunds(currency, amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// HasSufficientFunds reports whether the balance in currency covers amount
func (a *Account) HasSufficientFunds(currency Currency, amount decimal.Decimal) bool {
	return !a.Balance(currency).LessThan(amount)
}

// Balance returns the balance held in currency, zero when the account never held it
func (a *Account) Balance(currency Currency) decimal.Decimal {
	if balance, ok := a.balances[currency]; ok {
		return balance
	}
	return decimal.Zero
}

// Balances returns a copy of all balances
func (a *Account) Balances() map[Currency]decimal.Decimal {
	balances := make(map[Currency]decimal.Decimal, len(a.balances))
	for currency, amount := range a.balances {
		balances[currency] = amount
	}
	return balances
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	clone := *a
	clone.balances = a.Balances()
	return &clone
}

// CheckAmountRange returns ErrAmountOutOfRange when amount has more than
// MaxAmountIntegerDigits integer digits or more than MaxAmountFractionalDigits fractional digits.
// Trade and opening amounts must pass it before any arithmetic.
func CheckAmountRange(amount decimal.Decimal) error {
	exp := amount.Exponent()
	if exp < -MaxAmountFractionalDigits || exp > MaxAmountIntegerDigits {
		return ErrAmountOutOfRange
	}

	coefficient := amount.Coefficient()
	if coefficient.BitLen() > maxCoefficientBits {
		return ErrAmountOutOfRange
	}
	if coefficient.Sign() == 0 {
		return nil
	}

	digits := len(new(big.Int).Abs(coefficient).String())
	if digits+int(exp) > MaxAmountIntegerDigits {
		return ErrAmountOutOfRange
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

package model

import (
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/currency"
)

// Currency is an ISO 4217 currency code
type Currency string

// HomeCurrency funds every account and settles every trade
const HomeCurrency Currency = "PLN"

var ErrInvalidCurrency = errors.New("invalid currency code")

// supportedCurrencies is the allow-list of currencies that can be bought or sold
var supportedCurrencies = map[Currency]struct{}{
	"USD": {},
	"EUR": {},
	"GBP": {},
	"CHF": {},
}

// ParseCurrency normalizes code and checks it is a known ISO 4217 code
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrInvalidCurrency
	}
	return Currency(unit.String()), nil
}

// IsSupported reports whether currency can be traded against the home currency
func IsSupported(c Currency) bool {
	_, ok := supportedCurrencies[c]
	return ok
}

// SupportedCurrencies returns the tradable currencies in alphabetical order
func SupportedCurrencies() []Currency {
	currencies := make([]Currency, 0, len(supportedCurrencies))
	for c := range supportedCurrencies {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })
	return currencies
}

func (c Currency) String() string {
	return string(c)
}

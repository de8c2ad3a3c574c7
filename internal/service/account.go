package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"currency-exchange-api/internal/model"
	"currency-exchange-api/internal/repository"
)

// AccountStore persists accounts.
// FindByID returns repository.ErrAccountNotFound when no account has the id.
type AccountStore interface {
	Save(ctx context.Context, account *model.Account) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

// ExchangeRateProvider supplies live rates quoted in the home currency
type ExchangeRateProvider interface {
	AskRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error)
	BidRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error)
}

// AccountService handles account business logic
type AccountService struct {
	store AccountStore
	rates ExchangeRateProvider
	log   zerolog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store AccountStore, rates ExchangeRateProvider, log zerolog.Logger) *AccountService {
	return &AccountService{
		store: store,
		rates: rates,
		log:   log.With().Str("service", "account").Logger(),
	}
}

// OpenAccount creates and persists a new account funded in the home currency
func (s *AccountService) OpenAccount(ctx context.Context, cmd model.OpenAccountCommand) (uuid.UUID, error) {
	account, err := model.NewAccount(cmd.FirstName, cmd.LastName, cmd.OpeningBalance)
	if err != nil {
		return uuid.Nil, domainError(err)
	}

	id, err := s.store.Save(ctx, account)
	if err != nil {
		return uuid.Nil, storeError(err)
	}

	s.log.Info().Str("account_id", id.String()).Msg("Account opened")
	return id, nil
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

// BuyCurrency buys cmd.Amount of cmd.Currency and pays for it in the home currency at the ask rate.
// Amounts outside model.CheckAmountRange are rejected before the account is loaded.
// The funds check happens after the rate lookup because the cost depends on the rate.
func (s *AccountService) BuyCurrency(ctx context.Context, cmd model.BuyCurrencyCommand) (*model.Account, error) {
	if err := checkSupported(cmd.Currency); err != nil {
		return nil, err
	}
	if err := model.CheckAmountRange(cmd.Amount); err != nil {
		return nil, domainError(err)
	}

	account, err := s.GetAccount(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}

	askRate, err := s.rates.AskRate(ctx, cmd.Currency)
	if err != nil {
		return nil, s.rateError(cmd.Currency, err)
	}
	cost := cmd.Amount.Mul(askRate)

	updated := account.Clone()
	if err := updated.WithdrawFunds(model.HomeCurrency, cost); err != nil {
		return nil, domainError(err)
	}
	if err := updated.DepositFunds(cmd.Currency, cmd.Amount); err != nil {
		return nil, domainError(err)
	}

	if _, err := s.store.Save(ctx, updated); err != nil {
		return nil, storeError(err)
	}

	s.log.Info().
		Str("account_id", updated.ID.String()).
		Str("currency", cmd.Currency.String()).
		Str("amount", cmd.Amount.String()).
		Str("ask_rate", askRate.String()).
		Str("cost", cost.String()).
		Msg("Currency bought")

	return updated, nil
}

// SellCurrency sells cmd.Amount of cmd.Currency for the home currency at the bid rate.
// The funds check happens before the rate lookup since the amount is rate independent.
func (s *AccountService) SellCurrency(ctx context.Context, cmd model.SellCurrencyCommand) (*model.Account, error) {
	if err := checkSupported(cmd.Currency); err != nil {
		return nil, err
	}
	if err := model.CheckAmountRange(cmd.Amount); err != nil {
		return nil, domainError(err)
	}

	account, err := s.GetAccount(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}

	if err := account.CheckSufficientFunds(cmd.Currency, cmd.Amount); err != nil {
		return nil, domainError(err)
	}

	bidRate, err := s.rates.BidRate(ctx, cmd.Currency)
	if err != nil {
		return nil, s.rateError(cmd.Currency, err)
	}
	proceeds := cmd.Amount.Mul(bidRate)

	updated := account.Clone()
	if err := updated.WithdrawFunds(cmd.Currency, cmd.Amount); err != nil {
		return nil, domainError(err)
	}
	if err := updated.DepositFunds(model.HomeCurrency, proceeds); err != nil {
		return nil, domainError(err)
	}

	if _, err := s.store.Save(ctx, updated); err != nil {
		return nil, storeError(err)
	}

	s.log.Info().
		Str("account_id", updated.ID.String()).
		Str("currency", cmd.Currency.String()).
		Str("amount", cmd.Amount.String()).
		Str("bid_rate", bidRate.String()).
		Str("proceeds", proceeds.String()).
		Msg("Currency sold")

	return updated, nil
}

func (s *AccountService) rateError(currency model.Currency, err error) error {
	s.log.Warn().Err(err).Str("currency", currency.String()).Msg("Exchange rate unavailable")
	return &ServiceError{
		Code:    model.ErrCodeRateUnavailable,
		Message: "Exchange rate unavailable for " + currency.String(),
		Err:     err,
	}
}

func checkSupported(currency model.Currency) error {
	if !model.IsSupported(currency) {
		return &ServiceError{
			Code:    model.ErrCodeCurrencyNotSupported,
			Message: "Currency not supported: " + currency.String(),
		}
	}
	return nil
}

// domainError maps account validation failures to service errors
func domainError(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidName), errors.Is(err, model.ErrInvalidAmount), errors.Is(err, model.ErrAmountOutOfRange):
		return &ServiceError{Code: model.ErrCodeValidation, Message: err.Error(), Err: err}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &ServiceError{Code: model.ErrCodeInsufficientFunds, Message: "Insufficient funds on account", Err: err}
	default:
		return err
	}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return &ServiceError{Code: model.ErrCodeNotFound, Message: "Account not found", Err: err}
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return &ServiceError{Code: model.ErrCodeConflict, Message: "Account was modified concurrently, retry the request", Err: err}
	default:
		return err
	}
}

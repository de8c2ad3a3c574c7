package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"currency-exchange-api/internal/model"
	"currency-exchange-api/internal/service"
)

const maxBodyBytes = 1 << 20

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	log            zerolog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *service.AccountService, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		log:            log.With().Str("handler", "account").Logger(),
	}
}

// RegisterRoutes registers all account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/currencies", h.ListCurrencies)

		r.Post("/accounts", h.OpenAccount)
		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Post("/buy-currency", h.BuyCurrency)
			r.Post("/sell-currency", h.SellCurrency)
		})
	})
}

// OpenAccount handles POST /v1/accounts
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req model.OpenAccountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := h.accountService.OpenAccount(r.Context(), req.ToCommand())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.OpenAccountResponse{ID: id})
}

// GetAccount handles GET /v1/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewAccountResponse(account))
}

// BuyCurrency handles POST /v1/accounts/{id}/buy-currency
func (h *AccountHandler) BuyCurrency(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	var req model.ExchangeCurrencyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.BuyCurrency(r.Context(), model.BuyCurrencyCommand{
		AccountID: accountID,
		Currency:  req.Currency(),
		Amount:    req.Amount,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewAccountResponse(account))
}

// SellCurrency handles POST /v1/accounts/{id}/sell-currency
func (h *AccountHandler) SellCurrency(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	var req model.ExchangeCurrencyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.SellCurrency(r.Context(), model.SellCurrencyCommand{
		AccountID: accountID,
		Currency:  req.Currency(),
		Amount:    req.Amount,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewAccountResponse(account))
}

// ListCurrencies handles GET /v1/currencies
func (h *AccountHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.CurrenciesResponse{
		HomeCurrency: model.HomeCurrency,
		Supported:    model.SupportedCurrencies(),
	})
}

func (h *AccountHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), model.ErrCodeInvalidInput)
		return false
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "Request body must contain a single JSON object", model.ErrCodeInvalidInput)
		return false
	}

	if details := validateRequest(req); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   "Request validation failed",
			Code:    model.ErrCodeValidation,
			Details: details,
		})
		return false
	}

	return true
}

// handleServiceError converts service errors to HTTP responses
func (h *AccountHandler) handleServiceError(w http.ResponseWriter, err error) {
	var serviceErr *service.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Code {
		case model.ErrCodeNotFound:
			writeErrorResponse(w, http.StatusNotFound, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeValidation, model.ErrCodeInvalidInput:
			writeErrorResponse(w, http.StatusBadRequest, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeInsufficientFunds, model.ErrCodeCurrencyNotSupported:
			writeErrorResponse(w, http.StatusUnprocessableEntity, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeConflict:
			writeErrorResponse(w, http.StatusConflict, serviceErr.Message, serviceErr.Code)
		case model.ErrCodeRateUnavailable:
			writeErrorResponse(w, http.StatusServiceUnavailable, serviceErr.Message, serviceErr.Code)
		default:
			h.log.Error().Err(err).Msg("Unhandled service error code")
			writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", model.ErrCodeInternalError)
		}
		return
	}

	h.log.Error().Err(err).Msg("Request failed")
	writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", model.ErrCodeInternalError)
}

func parseAccountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid account ID format", model.ErrCodeInvalidInput)
		return uuid.Nil, false
	}
	return accountID, true
}

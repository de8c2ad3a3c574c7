package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"currency-exchange-api/internal/model"
)

const pingTimeout = 5 * time.Second

// Pinger reports whether the account store backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves /healthz from the account store's connectivity
type HealthHandler struct {
	store   Pinger
	backend string
	version string
}

// NewHealthHandler creates a health handler reporting on the named store backend
func NewHealthHandler(store Pinger, backend, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
		version: version,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Store:     h.checkStore(r.Context()),
	}

	// An unreachable store makes the whole service unhealthy
	if response.Store.Status != "healthy" {
		response.Status = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *HealthHandler) checkStore(ctx context.Context) model.StoreHealth {
	storeHealth := model.StoreHealth{
		Backend: h.backend,
		Status:  "unhealthy",
	}

	if h.store == nil {
		storeHealth.Error = "store not configured"
		return storeHealth
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		storeHealth.Error = err.Error()
		return storeHealth
	}

	storeHealth.Status = "healthy"
	return storeHealth
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, model.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

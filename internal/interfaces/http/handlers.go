package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundscreen/fundscreen/internal/domain"
)

// ScreenerService is what the handlers need from the application layer.
type ScreenerService interface {
	Screen(ctx context.Context, filters domain.ScreenerFilters) (*domain.ScreenerResponse, error)
}

// Handlers bundles all request handlers plus their dependencies.
type Handlers struct {
	service  ScreenerService
	defaults QueryDefaults
	log      zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(service ScreenerService, defaults QueryDefaults, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:  service,
		defaults: defaults,
		log:      log.With().Str("component", "handlers").Logger(),
	}
}

// Screener serves GET /funding/screener.
func (h *Handlers) Screener(w http.ResponseWriter, r *http.Request) {
	filters := ParseFilters(r.URL.Query(), h.defaults)
	h.respond(w, r, filters)
}

// NegativeFunding serves GET /funding/negative, the legacy alias. Exchange
// and direction query parameters are ignored; the remaining parameters keep
// their usual fallback behavior, so an explicit fundingCut still applies.
func (h *Handlers) NegativeFunding(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("exchange", string(domain.ExchangeBybit))
	q.Set("direction", string(domain.DirectionNegative))
	h.respond(w, r, ParseFilters(q, h.defaults))
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, filters domain.ScreenerFilters) {
	resp, err := h.service.Screen(r.Context(), filters)
	if err != nil {
		h.log.Error().Err(err).
			Str("exchange", string(filters.Exchange)).
			Msg("screen failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound is the catch-all handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

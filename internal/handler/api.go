package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/codefixer/internal/language"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// APIHandler serves the small JSON endpoints that need no service.
type APIHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewAPIHandler creates an APIHandler. db is checked by the health endpoint.
func NewAPIHandler(db Pinger, logger *slog.Logger) *APIHandler {
	return &APIHandler{db: db, logger: logger}
}

// LanguagesResponse lists the accepted languages in display order.
type LanguagesResponse struct {
	Placeholder string   `json:"placeholder"`
	Languages   []string `json:"languages"`
}

// HandleLanguages handles GET /api/languages.
func (h *APIHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LanguagesResponse{
		Placeholder: language.Placeholder,
		Languages:   language.Tags(),
	})
}

// HandleHealth handles GET /healthz: 200 when the database answers, 503
// otherwise.
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

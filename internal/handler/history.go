package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/flash"
	"github.com/sakif/codefixer/internal/service"
)

// HistoryHandler serves the signed-in user's saved completions, as a page
// under /past and as JSON under /api/history.
//
// All routes sit behind auth.RequireAuth or auth.RequireAuthJSON, so the
// identity is always present.
type HistoryHandler struct {
	history *service.HistoryService
	render  *Renderer
	logger  *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(history *service.HistoryService, render *Renderer, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		render:  render,
		logger:  logger,
	}
}

// HandlePast handles GET /past.
func (h *HistoryHandler) HandlePast(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := auth.UserIDFromContext(r.Context())

	items, err := h.history.List(r.Context(), ownerID)
	data := &pageData{Title: "Past code | CodeFixer", Items: items}
	if err != nil {
		h.logger.Error("listing history failed",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		data.Flashes = []flash.Message{flash.New(flash.Error, "Could not load your history")}
	}
	h.render.Render(w, r, http.StatusOK, pagePast, data)
}

// HandleDelete handles POST /past/{id}/delete. A malformed, missing, or
// foreign id all yield "Entry not found".
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := auth.UserIDFromContext(r.Context())
	notFound := flash.New(flash.Error, "Entry not found")

	id, err := parseID(r)
	if err != nil {
		redirect(w, r, "/past", notFound)
		return
	}

	if err := h.history.Delete(r.Context(), id, ownerID); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			h.logger.Error("deleting history entry failed",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
			redirect(w, r, "/past", flash.New(flash.Error, "Could not delete the entry"))
			return
		}
		redirect(w, r, "/past", notFound)
		return
	}

	redirect(w, r, "/past", flash.New(flash.Success, "Entry deleted successfully"))
}

// HandleList handles GET /api/history.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := auth.UserIDFromContext(r.Context())

	items, err := h.history.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("listing history failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleGet handles GET /api/history/{id}.
func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := auth.UserIDFromContext(r.Context())

	id, err := parseID(r)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "id must be a positive integer"))
		return
	}

	item, err := h.history.Get(r.Context(), id, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDeleteJSON handles DELETE /api/history/{id}.
func (h *HistoryHandler) HandleDeleteJSON(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := auth.UserIDFromContext(r.Context())

	id, err := parseID(r)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "id must be a positive integer"))
		return
	}

	if err := h.history.Delete(r.Context(), id, ownerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

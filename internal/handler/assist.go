package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/flash"
	"github.com/sakif/codefixer/internal/language"
	"github.com/sakif/codefixer/internal/prompt"
	"github.com/sakif/codefixer/internal/service"
)

// maxFormBytes caps a submitted form. Code snippets are plain text, so this
// is far above any real paste.
const maxFormBytes = 1 << 20

// AssistHandler serves the fix (/) and suggest (/suggest) pages.
type AssistHandler struct {
	assist *service.AssistService
	render *Renderer
	logger *slog.Logger
}

// NewAssistHandler creates an AssistHandler.
func NewAssistHandler(assist *service.AssistService, render *Renderer, logger *slog.Logger) *AssistHandler {
	return &AssistHandler{
		assist: assist,
		render: render,
		logger: logger,
	}
}

// HandleFix serves GET and POST /.
func (h *AssistHandler) HandleFix(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, prompt.KindFix, &pageData{
		Title:  "Fix code | CodeFixer",
		Action: "/",
		Submit: "Fix code",
	}, pageHome)
}

// HandleSuggest serves GET and POST /suggest.
func (h *AssistHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, prompt.KindSuggest, &pageData{
		Title:  "Suggest improvements | CodeFixer",
		Action: "/suggest",
		Submit: "Get suggestions",
	}, pageSuggest)
}

// serve renders the empty form on GET. On POST it submits code and lang and
// re-renders the form with both preserved, plus the answer or an error
// message. Every outcome is a 200 page; failures never escape as an error
// page.
func (h *AssistHandler) serve(w http.ResponseWriter, r *http.Request, kind prompt.Kind, data *pageData, page string) {
	data.Languages = language.Choices()
	data.Lang = language.Placeholder

	if r.Method != http.MethodPost {
		h.render.Render(w, r, http.StatusOK, page, data)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		data.Flashes = append(data.Flashes, flash.New(flash.Error, "Error processing request: "+err.Error()))
		h.render.Render(w, r, http.StatusBadRequest, page, data)
		return
	}

	in := service.Input{
		Code: r.PostFormValue("code"),
		Lang: r.PostFormValue("lang"),
	}
	data.Code = in.Code
	if in.Lang != "" {
		data.Lang = in.Lang
		if !slices.Contains(data.Languages, in.Lang) {
			data.OtherLang = in.Lang
		}
	}

	ownerID, _ := auth.UserIDFromContext(r.Context())
	res, err := h.assist.Submit(r.Context(), kind, ownerID, in)
	switch {
	case err == nil:
		data.Answer = res.Answer
		data.Answered = true
		data.Saved = res.Saved
	case errors.Is(err, apperror.ErrValidation):
		data.Flashes = append(data.Flashes, flash.New(flash.Error, service.MsgSelectLanguage))
	case errors.Is(err, apperror.ErrUpstream):
		msg := apperror.MessageOf(err, err.Error())
		data.Flashes = append(data.Flashes, flash.New(flash.Error, "Error processing request: "+msg))
	default:
		h.logger.Error("assist submit failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		data.Flashes = append(data.Flashes, flash.New(flash.Error, "Error processing request: internal error"))
	}

	h.render.Render(w, r, http.StatusOK, page, data)
}

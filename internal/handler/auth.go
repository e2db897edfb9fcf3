package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/flash"
	"github.com/sakif/codefixer/internal/service"
)

// GitHubAuthenticator is the part of auth.GitHubProvider the handlers use.
type GitHubAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves login, logout, registration, and GitHub sign-in.
type AuthHandler struct {
	auth   *service.AuthService
	github GitHubAuthenticator // nil when GitHub sign-in is not configured
	render *Renderer
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil. ttl is the
// session cookie lifetime and secure sets the cookie's Secure flag.
func NewAuthHandler(
	authSvc *service.AuthService,
	github GitHubAuthenticator,
	render *Renderer,
	ttl time.Duration,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:   authSvc,
		github: github,
		render: render,
		ttl:    ttl,
		secure: secure,
		logger: logger,
	}
}

// HandleLogin handles POST /login. Success and failure both redirect home;
// the failure message is the same whether or not the username exists.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/", flash.New(flash.Error, apperror.InvalidCredentials().Message))
		return
	}

	res, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		redirect(w, r, "/", flash.New(flash.Error, apperror.InvalidCredentials().Message))
		return
	}

	auth.SetSessionCookie(w, res.Token, h.ttl, h.secure)
	redirect(w, r, "/", flash.New(flash.Success, "Logged in successfully!"))
}

// HandleLogout handles GET /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secure)
	redirect(w, r, "/", flash.New(flash.Success, "Successfully logged out!"))
}

// HandleRegisterPage handles GET /register.
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, pageRegister, &pageData{
		Title:       "Register | CodeFixer",
		Form:        map[string]string{},
		FieldErrors: map[string]string{},
	})
}

// HandleRegister handles POST /register. Invalid input re-renders the form
// with per-field errors; passwords are never echoed back.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, map[string]string{}, nil)
		return
	}

	in := service.RegisterInput{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
	form := map[string]string{
		"username":   in.Username,
		"email":      in.Email,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		var fe service.FieldErrors
		if errors.As(err, &fe) {
			h.renderRegister(w, r, http.StatusOK, form, fe)
			return
		}
		h.logger.Error("registration failed", slog.String("error", err.Error()))
		h.renderRegister(w, r, http.StatusInternalServerError, form, nil)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.ttl, h.secure)
	redirect(w, r, "/", flash.New(flash.Success, "Registration successful!"))
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form map[string]string, fe service.FieldErrors) {
	if fe == nil {
		fe = service.FieldErrors{}
	}
	h.render.Render(w, r, status, pageRegister, &pageData{
		Title:       "Register | CodeFixer",
		Flashes:     []flash.Message{flash.New(flash.Error, "Please correct the errors below")},
		Form:        form,
		FieldErrors: fe,
	})
}

// HandleGitHubLogin handles GET /auth/github/login: it stores a state cookie
// and redirects to GitHub.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}
	state := auth.NewState(w, h.secure)
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback handles GET /auth/github/callback.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}
	failed := flash.New(flash.Error, "GitHub sign-in failed")

	if err := auth.CheckState(w, r, h.secure); err != nil {
		h.logger.Warn("auth callback: state mismatch")
		redirect(w, r, "/", failed)
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		redirect(w, r, "/", failed)
		return
	}
	code := q.Get("code")
	if code == "" {
		redirect(w, r, "/", failed)
		return
	}

	gh, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		redirect(w, r, "/", failed)
		return
	}

	res, err := h.auth.LoginGitHub(r.Context(), gh)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", gh.ID),
			slog.String("error", err.Error()),
		)
		redirect(w, r, "/", failed)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.ttl, h.secure)
	redirect(w, r, "/", flash.New(flash.Success, "Logged in successfully!"))
}

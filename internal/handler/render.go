// Package handler contains the HTTP handlers: the HTML pages and the JSON API.
//
// Handlers parse the request, call a service, and translate the result or
// the apperror kind into a page (with flash messages) or a JSON response.
// They hold no business rules.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/codefixer/internal/auth"
	"github.com/sakif/codefixer/internal/flash"
	"github.com/sakif/codefixer/internal/model"
)

// Page template names.
const (
	pageHome     = "home.html"
	pageSuggest  = "suggest.html"
	pageRegister = "register.html"
	pagePast     = "past.html"
)

// pageData is what every page template receives. The fields a page does
// not use stay at their zero values.
type pageData struct {
	Title         string
	Identity      auth.Identity
	SignedIn      bool
	GitHubEnabled bool
	Flashes       []flash.Message

	// fix and suggest
	Action    string
	Submit    string
	Languages []string
	Code      string
	Lang      string
	Answer    string
	Answered  bool
	Saved     bool
	// OtherLang is a submitted lang that is not in Languages; the form
	// echoes it as an extra selected option.
	OtherLang string

	// register
	Form        map[string]string
	FieldErrors map[string]string

	// past
	Items []model.Completion
}

// Renderer parses every page once at startup and executes it per request.
//
// Each page is parsed together with base.html and form.html into its own
// template set, because every page defines its own "content" block.
type Renderer struct {
	pages         map[string]*template.Template
	githubEnabled bool
	logger        *slog.Logger
}

// NewRenderer parses the templates under templates/ in fsys.
func NewRenderer(fsys fs.FS, githubEnabled bool, logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template)
	for _, page := range []string{pageHome, pageSuggest, pageRegister, pagePast} {
		tmpl, err := template.ParseFS(fsys,
			"templates/base.html",
			"templates/form.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", page, err)
		}
		pages[page] = tmpl
	}
	return &Renderer{
		pages:         pages,
		githubEnabled: githubEnabled,
		logger:        logger,
	}, nil
}

// Render writes page with status. Pending flash messages from the cookie are
// shown before data.Flashes, and the cookie is cleared.
//
// The page is rendered into a buffer first so a template error still
// produces a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data.Identity, data.SignedIn = auth.IdentityFromContext(r.Context())
	data.GitHubEnabled = rd.githubEnabled
	if data.Title == "" {
		data.Title = "CodeFixer"
	}
	data.Flashes = append(flash.Pop(w, r), data.Flashes...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect stores msgs in the flash cookie and sends a 303 to url.
func redirect(w http.ResponseWriter, r *http.Request, url string, msgs ...flash.Message) {
	flash.Set(w, msgs...)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/sakif/codefixer/internal/flash"
)

// SessionCookie is the name of the HttpOnly cookie holding the JWT.
const SessionCookie = "token"

// Identity is who a request is authenticated as.
type Identity struct {
	UserID   string
	Username string
}

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions with keys set by other
// packages.
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated identity, or (zero, false)
// for an anonymous request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext returns the authenticated user's ID.
// Returns ("", false) if the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

// OptionalAuth extracts the identity if a valid session cookie is present,
// but never blocks the request. The fix and suggest pages use it: anonymous
// users get results too, signed-in users also get them saved.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth protects HTML pages. Anonymous requests are redirected to the
// home page with a flash message asking the user to log in.
//
// It expects OptionalAuth to have run first, so it only checks the context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			flash.Set(w, flash.New(flash.Error, "Please log in to continue"))
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthJSON protects API routes with a 401 JSON body instead of a
// redirect.
func RequireAuthJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie stores a freshly issued token.
//
// HttpOnly keeps it away from JavaScript (XSS); SameSite=Lax stops it being
// sent on cross-site POSTs. secure should be true behind HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
// The JWT itself stays valid until it expires, but without the cookie the
// browser no longer sends it.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return Identity{}, err
	}
	return tokens.Validate(cookie.Value)
}

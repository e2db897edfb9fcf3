// Package flash carries one-shot status messages across a redirect.
//
// A handler that redirects calls Set; the page rendered by the next request
// calls Pop, which returns the messages and deletes the cookie. Pages that
// re-render in place skip the cookie and pass their messages straight to
// the template.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const cookieName = "flash"

// Level is the message category, used as a CSS class by the templates.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// Message is one flash entry.
type Message struct {
	Level Level  `json:"l"`
	Text  string `json:"t"`
}

// New is shorthand for building a Message.
func New(level Level, text string) Message {
	return Message{Level: level, Text: text}
}

// Set stores msgs in the flash cookie, replacing anything already pending.
func Set(w http.ResponseWriter, msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending messages and clears the cookie. A missing or
// malformed cookie yields no messages.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}
	return msgs
}

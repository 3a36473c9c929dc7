package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionCookie = "session_id"

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sessionID picks the chat session: the body value first, then the cookie,
// then a fresh UUID. The returned cookie is nil when the client already holds
// the chosen ID.
func sessionID(r *http.Request, fromBody string) (string, *http.Cookie) {
	current := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		current = sanitizeInput(c.Value)
	}
	if len(current) > 128 {
		current = ""
	}

	id := fromBody
	if id == "" {
		id = current
	}
	if id == "" {
		id = uuid.NewString()
	}
	if id == current {
		return id, nil
	}
	return id, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	}
}

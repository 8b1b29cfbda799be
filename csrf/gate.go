package csrf

import (
	"errors"
	"net/http"
)

// Verification failure reasons. The message text is returned to clients.
var (
	ErrNoSession    = errors.New("No session found")
	ErrTokenMissing = errors.New("CSRF token missing")
	ErrTokenInvalid = errors.New("Invalid CSRF token")
)

// stateChanging lists the methods that require a CSRF token. Safe methods
// pass without a session or token.
var stateChanging = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Check validates the request's CSRF token for state-changing methods.
// sessionID is the caller's authenticated session, empty when anonymous.
// The token is read from the X-CSRF-Token header, falling back to
// CSRF-Token. Safe methods always pass; everything else fails closed.
func (s *Signer) Check(r *http.Request, sessionID string) error {
	if !stateChanging[r.Method] {
		return nil
	}
	if sessionID == "" {
		return ErrNoSession
	}

	token := r.Header.Get("X-CSRF-Token")
	if token == "" {
		token = r.Header.Get("CSRF-Token")
	}
	if token == "" {
		return ErrTokenMissing
	}

	if !s.Verify(token, sessionID) {
		return ErrTokenInvalid
	}
	return nil
}

// SessionIDFunc extracts the authenticated session ID from a request,
// returning "" when the request is anonymous.
type SessionIDFunc func(r *http.Request) string

// Middleware enforces Check on every request, writing a 403 through reject
// when the check fails. Mount it after session resolution and before body
// parsing.
func (s *Signer) Middleware(sessionID SessionIDFunc, reject func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := s.Check(r, sessionID(r)); err != nil {
				reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

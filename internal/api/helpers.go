package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/guard"
	"github.com/seacatering/mealsvc/httpkit"
	"github.com/seacatering/mealsvc/internal/auth"
	"github.com/seacatering/mealsvc/sanitize"
)

// decodeBody reads, pre-checks, and sanitizes the JSON request body into an
// object. On failure it writes the appropriate problem response and returns
// ok=false. genericMsg is the route's opaque failure message; the sanitizer's
// malicious-input abort is reported with it as a 500 so the response never
// describes what was detected.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, genericMsg string) (map[string]any, bool) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			httpkit.JSONProblem(w, r, errors.PayloadTooLargeError("request body too large"))
		} else {
			httpkit.JSONProblem(w, r, errors.ValidationError("Unable to read request body"))
		}
		return nil, false
	}

	cleaned, err := sanitize.DecodeBody(data)
	switch {
	case err == nil:
	case stderrors.Is(err, sanitize.ErrMaliciousInput):
		s.logger.WarnContext(r.Context(), "malicious input rejected",
			"path", r.URL.Path, "remote", r.RemoteAddr)
		s.countRejection(r, "malicious_input")
		httpkit.JSONProblem(w, r, errors.InternalError(genericMsg))
		return nil, false
	case stderrors.Is(err, sanitize.ErrInvalidJSON):
		httpkit.JSONProblem(w, r, errors.ValidationError("Invalid JSON body"))
		return nil, false
	default:
		// Dangerous key or nesting depth.
		httpkit.JSONProblem(w, r, errors.ValidationError("Invalid request body"))
		return nil, false
	}

	obj, ok := cleaned.(map[string]any)
	if !ok {
		httpkit.JSONProblem(w, r, errors.ValidationError("Request body must be a JSON object"))
		return nil, false
	}
	return obj, true
}

// requireSession returns the authenticated session or writes a 401 with msg.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request, msg string) (*auth.Session, bool) {
	sess := auth.FromContext(r.Context())
	if sess == nil {
		httpkit.JSONProblem(w, r, errors.UnauthorizedError(msg))
		return nil, false
	}
	return sess, true
}

// checkCSRF enforces the anti-forgery token for the request, writing a 403
// on failure. Tokens are bound to the caller's user ID.
func (s *Server) checkCSRF(w http.ResponseWriter, r *http.Request, sess *auth.Session) bool {
	var sessionID string
	if sess != nil {
		sessionID = sess.UserID
	}
	if err := s.signer.Check(r, sessionID); err != nil {
		s.countRejection(r, "csrf")
		httpkit.JSONProblem(w, r, errors.ForbiddenError(err.Error()))
		return false
	}
	return true
}

// allowRate checks a per-user limiter, writing a 429 with msg on rejection.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, lim *guard.Limiter, key, msg string) bool {
	if !lim.Allow(key) {
		s.countRejection(r, "rate_limit")
		httpkit.JSONProblem(w, r, errors.RateLimitError(msg))
		return false
	}
	return true
}

// validationFailed writes the standard 400 carrying the full error list.
func (s *Server) validationFailed(w http.ResponseWriter, r *http.Request, errs []string) {
	s.countRejection(r, "validation")
	httpkit.JSONProblem(w, r, errors.ValidationError("Validation failed").WithDetail("errors", errs))
}

// countRejection bumps the rejection counter when metrics are enabled.
func (s *Server) countRejection(r *http.Request, reason string) {
	if s.rejections != nil {
		s.rejections.Add(r.Context(), 1, "reason", reason)
	}
}

// cleanQueryParam sanitizes a query string value. A malicious value aborts
// with a generic 500 carrying genericMsg, mirroring body handling.
func (s *Server) cleanQueryParam(w http.ResponseWriter, r *http.Request, value, genericMsg string) (string, bool) {
	cleaned, err := sanitize.CleanString(value)
	if err != nil {
		s.logger.WarnContext(r.Context(), "malicious input rejected",
			"path", r.URL.Path, "remote", r.RemoteAddr)
		s.countRejection(r, "malicious_input")
		httpkit.JSONProblem(w, r, errors.InternalError(genericMsg))
		return "", false
	}
	return cleaned, true
}

// bodyString reads an optional string field from a decoded body.
func bodyString(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return v
}

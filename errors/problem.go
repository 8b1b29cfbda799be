package errors

import (
	"encoding/json"
	"net/http"
)

const typeBaseURI = "https://api.seacatering.id/errors/"

// statusMeta pairs the type-URI slug and human title for one HTTP status.
type statusMeta struct {
	slug  string
	title string
}

var statusMetas = map[int]statusMeta{
	http.StatusBadRequest:            {"validation", "Validation Error"},
	http.StatusNotFound:              {"not-found", "Not Found"},
	http.StatusUnauthorized:          {"unauthorized", "Unauthorized"},
	http.StatusForbidden:             {"forbidden", "Forbidden"},
	http.StatusConflict:              {"conflict", "Conflict"},
	http.StatusRequestEntityTooLarge: {"payload-too-large", "Payload Too Large"},
	http.StatusTooManyRequests:       {"rate-limit", "Rate Limit Exceeded"},
	http.StatusServiceUnavailable:    {"dependency", "Dependency Error"},
	http.StatusInternalServerError:   {"internal", "Internal Error"},
}

// ProblemDetail is an RFC 9457 Problem Details object. Extension members
// live in Extensions but serialize as top-level JSON fields.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

// MarshalJSON flattens Extensions into the top-level object. Extension keys
// cannot shadow the five standard members.
func (pd ProblemDetail) MarshalJSON() ([]byte, error) {
	reserved := map[string]bool{
		"type": true, "title": true, "status": true, "detail": true, "instance": true,
	}
	m := map[string]any{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
		"detail": pd.Detail,
	}
	if pd.Instance != "" {
		m["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		if !reserved[k] {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// ProblemDetail renders the error as an RFC 9457 object, taking Instance
// from the request path. Validation message lists ride along in the
// "errors" extension.
func (e *ServiceError) ProblemDetail(r *http.Request) ProblemDetail {
	meta, ok := statusMetas[e.HTTPCode]
	if !ok {
		meta = statusMeta{slug: "unknown", title: http.StatusText(e.HTTPCode)}
	}
	pd := ProblemDetail{
		Type:   typeBaseURI + meta.slug,
		Title:  meta.title,
		Status: e.HTTPCode,
		Detail: e.Message,
	}
	if e.typeURI != "" {
		pd.Type = e.typeURI
	}
	if r != nil && r.URL != nil {
		pd.Instance = r.URL.Path
	}
	if len(e.Details) > 0 {
		pd.Extensions = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			pd.Extensions[k] = v
		}
	}
	return pd
}

// WriteProblem writes the error as a problem+json response. A non-empty
// requestID becomes the "request_id" extension member.
func WriteProblem(w http.ResponseWriter, r *http.Request, e *ServiceError, requestID string) {
	pd := e.ProblemDetail(r)
	if requestID != "" {
		if pd.Extensions == nil {
			pd.Extensions = make(map[string]any, 1)
		}
		pd.Extensions["request_id"] = requestID
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(e.HTTPCode)
	_ = json.NewEncoder(w).Encode(pd)
}

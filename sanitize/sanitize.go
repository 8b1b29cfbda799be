// Package sanitize cleans untrusted JSON-shaped input before validation.
//
// Clean walks the decoded JSON tree, strips HTML from every string, and
// aborts hard on SQL-injection indicators. The abort is deliberate: unlike
// ordinary validation failures, which are returned as values, malicious
// input is a security short-circuit — the whole request is rejected, not
// just the offending field.
//
// Do not use this package on file uploads or streaming endpoints; it
// operates on fully parsed bodies. Enforce body size limits (guard.MaxBody)
// before data reaches it.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrMaliciousInput is returned when a string matches a SQL-injection
// indicator pattern. Callers must abort the entire request.
var ErrMaliciousInput = errors.New("sanitize: potentially malicious input detected")

// sqlPatterns is the fixed set of SQL-injection indicators. The first entry
// catches quote, backslash, statement-separator, comment, and URL-encoded
// quote/equals sequences; the rest catch statement keywords.
var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`'|\\|;|--|%27|%3D|/\*`),
	regexp.MustCompile(`(?i)union[\s\w]*select`),
	regexp.MustCompile(`(?i)select[\s\w]*from`),
	regexp.MustCompile(`(?i)insert[\s\w]*into`),
	regexp.MustCompile(`(?i)delete[\s\w]*from`),
	regexp.MustCompile(`(?i)update[\s\w]*set`),
	regexp.MustCompile(`(?i)drop[\s\w]*table`),
	regexp.MustCompile(`(?i)create[\s\w]*table`),
	regexp.MustCompile(`(?i)alter[\s\w]*table`),
	regexp.MustCompile(`(?i)exec[\s\w]*\(`),
	regexp.MustCompile(`(?i)execute[\s\w]*\(`),
}

// strict strips all HTML tags and attributes, keeping inner text.
var strict = bluemonday.StrictPolicy()

// DetectSQLInjection reports whether input matches any SQL-injection
// indicator pattern.
func DetectSQLInjection(input string) bool {
	for _, p := range sqlPatterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}

// StripHTML removes all HTML tags and attributes from input, keeping text
// content, and trims surrounding whitespace.
func StripHTML(input string) string {
	return strings.TrimSpace(strict.Sanitize(input))
}

// Clean recursively sanitizes a decoded JSON value. Strings are checked for
// SQL-injection indicators (returning ErrMaliciousInput on a match), then
// HTML-stripped and trimmed. Arrays and objects are rebuilt with every
// element cleaned; element order of arrays is preserved. Numbers, booleans,
// and nulls pass through unchanged.
//
// Clean is idempotent on any input free of injection indicators.
func Clean(v any) (any, error) {
	switch val := v.(type) {
	case string:
		if DetectSQLInjection(val) {
			return nil, fmt.Errorf("%w: string field", ErrMaliciousInput)
		}
		return StripHTML(val), nil

	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			cleaned, err := Clean(item)
			if err != nil {
				return nil, err
			}
			out[i] = cleaned
		}
		return out, nil

	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			cleaned, err := Clean(item)
			if err != nil {
				return nil, err
			}
			out[key] = cleaned
		}
		return out, nil

	default:
		return v, nil
	}
}

// CleanString sanitizes a single string value, such as a query parameter.
func CleanString(s string) (string, error) {
	cleaned, err := Clean(s)
	if err != nil {
		return "", err
	}
	return cleaned.(string), nil
}

// Package validate implements field- and form-level validation for user
// input. Validators return the sanitized value alongside the list of
// human-readable error messages; an empty list means the value is valid.
// Password rules accumulate every violated rule rather than stopping at
// the first, so the client can render the full checklist at once.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/seacatering/mealsvc/sanitize"
)

const (
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordLength = 128
	minNameLength     = 2
	maxNameLength     = 100
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)

	// phoneStripRe removes everything except digits, plus, hyphen,
	// parentheses, and whitespace.
	phoneStripRe = regexp.MustCompile(`[^\d+\-()\s]`)
	phoneRe      = regexp.MustCompile(`^\+?[\d\-()\s]{8,20}$`)

	// suspiciousPatterns flag script injection attempts in free text.
	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)onload\s*=`),
		regexp.MustCompile(`(?i)onerror\s*=`),
		regexp.MustCompile(`(?i)onclick\s*=`),
		regexp.MustCompile(`(?i)onmouseover\s*=`),
	}
)

// Email validates an address and returns its normalised form: trimmed,
// lowercased, with the googlemail.com alias rewritten to gmail.com.
func Email(email string) (string, []string) {
	var errs []string
	switch {
	case email == "":
		errs = append(errs, "Email is required")
	case !emailRe.MatchString(email):
		errs = append(errs, "Invalid email format")
	case len(email) > maxEmailLength:
		errs = append(errs, "Email is too long")
	}

	normalised := strings.ToLower(strings.TrimSpace(email))
	if local, domain, ok := strings.Cut(normalised, "@"); ok && domain == "googlemail.com" {
		normalised = local + "@gmail.com"
	}
	return normalised, errs
}

// Phone validates an optional phone number. Empty input is valid. The
// sanitized form keeps only digits, plus, hyphen, parentheses, and spaces.
func Phone(phone string) (string, []string) {
	var errs []string
	if phone != "" && !phoneRe.MatchString(phone) {
		errs = append(errs, "Invalid phone number format")
	}
	return strings.TrimSpace(phoneStripRe.ReplaceAllString(phone, "")), errs
}

// Password checks length bounds and the four character-class rules,
// reporting every violated rule. The value is returned untouched; passwords
// are never sanitized.
func Password(password string) (string, []string) {
	var errs []string
	if password == "" {
		return password, []string{"Password is required"}
	}
	if len(password) < minPasswordLength {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if len(password) > maxPasswordLength {
		errs = append(errs, "Password is too long")
	}
	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		errs = append(errs, "Password must contain at least one number")
	}
	if !strings.ContainsAny(password, `!@#$%^&*(),.?":{}|<>`) {
		errs = append(errs, "Password must contain at least one special character")
	}
	return password, errs
}

// Name validates a person's name: 2-100 characters drawn from letters,
// spaces, hyphens, apostrophes, and periods. The sanitized form is
// HTML-stripped and trimmed.
func Name(name string) (string, []string) {
	var errs []string
	switch {
	case name == "":
		errs = append(errs, "Name is required")
	case len(name) < minNameLength:
		errs = append(errs, "Name must be at least 2 characters long")
	case len(name) > maxNameLength:
		errs = append(errs, "Name is too long")
	case !nameRe.MatchString(name):
		errs = append(errs, "Name contains invalid characters")
	}
	return sanitize.StripHTML(name), errs
}

// Text validates free-form text against a length cap and script-injection
// patterns. fieldName is interpolated into error messages. Empty input is
// valid; the sanitized form is HTML-stripped and trimmed.
func Text(text string, maxLength int, fieldName string) (string, []string) {
	var errs []string
	if text != "" && len(text) > maxLength {
		errs = append(errs, fmt.Sprintf("%s is too long (maximum %d characters)", fieldName, maxLength))
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			errs = append(errs, fmt.Sprintf("%s contains potentially malicious content", fieldName))
			break
		}
	}
	return sanitize.StripHTML(text), errs
}

// StringArray validates that arr is a non-empty array whose elements all
// belong to allowed. The sanitized form keeps only allowed string elements,
// deduplicated, in first-seen order.
func StringArray(arr any, allowed []string, fieldName string) ([]string, []string) {
	items, ok := arr.([]any)
	if !ok {
		return nil, []string{fmt.Sprintf("%s must be an array", fieldName)}
	}

	var errs []string
	if len(items) == 0 {
		errs = append(errs, fmt.Sprintf("%s cannot be empty", fieldName))
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		allowedSet[v] = true
	}

	var invalid []string
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		s, isString := item.(string)
		if !isString || !allowedSet[s] {
			invalid = append(invalid, fmt.Sprint(item))
			continue
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Sprintf("%s contains invalid values: %s", fieldName, strings.Join(invalid, ", ")))
	}
	return out, errs
}

// ID validates that id is a well-formed UUID. fieldName is interpolated
// into error messages.
func ID(id, fieldName string) (string, []string) {
	var errs []string
	if id == "" {
		errs = append(errs, fmt.Sprintf("%s is required", fieldName))
	} else if err := uuid.Validate(id); err != nil {
		errs = append(errs, fmt.Sprintf("%s must be a valid UUID", fieldName))
	}
	return strings.TrimSpace(id), errs
}

// Rating validates that v is an integer between 1 and 5 inclusive. JSON
// numbers arrive as float64; integral floats are accepted.
func Rating(v any) (int, []string) {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	default:
		return 0, []string{"Rating must be a number"}
	}
	if n != float64(int(n)) {
		return 0, []string{"Rating must be a number"}
	}
	if n < 1 || n > 5 {
		return int(n), []string{"Rating must be between 1 and 5"}
	}
	return int(n), nil
}

package sanitize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Sentinel errors for body-level pre-checks.
var (
	ErrDangerousKey = errors.New("sanitize: dangerous key detected")
	ErrNestingDepth = errors.New("sanitize: nesting depth exceeded")
	ErrInvalidJSON  = errors.New("sanitize: invalid JSON")
)

// dangerousKeys is the set of normalised object keys blocked in user input.
// Prototype-pollution names are included even though they are inert here;
// cleaned payloads may be replayed into other runtimes.
var dangerousKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
	"execute":     true,
	"eval":        true,
	"include":     true,
	"import":      true,
	"require":     true,
	"system":      true,
	"shell":       true,
	"command":     true,
	"script":      true,
	"exec":        true,
	"spawn":       true,
	"fork":        true,
}

// MaxNestingDepth is the maximum allowed depth for nested structures.
const MaxNestingDepth = 20

// DecodeBody parses data as JSON, rejects dangerous keys and excessive
// nesting, then runs Clean over the whole tree. It is the single entry
// point handlers use to turn a raw request body into a sanitized value.
// Errors wrap one of ErrInvalidJSON, ErrDangerousKey, ErrNestingDepth, or
// ErrMaliciousInput.
func DecodeBody(data []byte) (any, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := checkValue(parsed, 0); err != nil {
		return nil, err
	}
	return Clean(parsed)
}

func checkValue(v any, depth int) error {
	switch val := v.(type) {
	case map[string]any:
		if depth >= MaxNestingDepth {
			return fmt.Errorf("%w: depth %d exceeds maximum %d", ErrNestingDepth, depth, MaxNestingDepth)
		}
		for key, value := range val {
			// Strip non-ASCII and non-printable characters, then normalise.
			cleaned := strings.Map(func(r rune) rune {
				if r > unicode.MaxASCII || !unicode.IsPrint(r) {
					return -1
				}
				return r
			}, key)
			normalised := strings.ToLower(strings.ReplaceAll(cleaned, "-", "_"))
			if dangerousKeys[normalised] {
				return fmt.Errorf("%w: %q", ErrDangerousKey, key)
			}
			if err := checkValue(value, depth+1); err != nil {
				return err
			}
		}
	case []any:
		if depth >= MaxNestingDepth {
			return fmt.Errorf("%w: depth %d exceeds maximum %d", ErrNestingDepth, depth, MaxNestingDepth)
		}
		for _, item := range val {
			if err := checkValue(item, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

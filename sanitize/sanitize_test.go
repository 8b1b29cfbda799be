package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestDetectSQLInjection(t *testing.T) {
	malicious := []string{
		"'; DROP TABLE users; --",
		"1 UNION SELECT password",
		"SELECT * FROM accounts",
		"a;b",
		"%27 OR 1",
		"name%3Dadmin",
		"/* comment */",
		"exec(cmd)",
	}
	for _, in := range malicious {
		if !DetectSQLInjection(in) {
			t.Errorf("DetectSQLInjection(%q) = false, want true", in)
		}
	}

	benign := []string{
		"Diet Plan",
		"I love the protein plan!",
		"user@example.com",
		"breakfast",
		"select a plan that suits you", // keyword without FROM
	}
	for _, in := range benign {
		if DetectSQLInjection(in) {
			t.Errorf("DetectSQLInjection(%q) = true, want false", in)
		}
	}
}

func TestCleanAbortsOnInjection(t *testing.T) {
	_, err := Clean("'; DROP TABLE users; --")
	if !errors.Is(err, ErrMaliciousInput) {
		t.Fatalf("err = %v, want ErrMaliciousInput", err)
	}

	// The abort propagates from nested values too.
	_, err = Clean(map[string]any{
		"name": "ok",
		"nested": []any{
			map[string]any{"note": "1 UNION SELECT password"},
		},
	})
	if !errors.Is(err, ErrMaliciousInput) {
		t.Fatalf("nested err = %v, want ErrMaliciousInput", err)
	}
}

func TestCleanStripsHTMLAndTrims(t *testing.T) {
	got, err := Clean("  <b>Diet</b> Plan  ")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Diet Plan" {
		t.Errorf("got %q, want %q", got, "Diet Plan")
	}
}

func TestCleanRecursesPreservingShape(t *testing.T) {
	in := map[string]any{
		"name":   "<i>John</i>",
		"rating": float64(5),
		"active": true,
		"notes":  nil,
		"meals":  []any{"<b>breakfast</b>", "dinner"},
	}
	got, err := Clean(in)
	if err != nil {
		t.Fatal(err)
	}
	m := got.(map[string]any)
	if m["name"] != "John" {
		t.Errorf("name = %q", m["name"])
	}
	if m["rating"] != float64(5) || m["active"] != true || m["notes"] != nil {
		t.Error("non-string values must pass through unchanged")
	}
	meals := m["meals"].([]any)
	if meals[0] != "breakfast" || meals[1] != "dinner" {
		t.Errorf("meals = %v", meals)
	}
}

func TestCleanIdempotent(t *testing.T) {
	in := map[string]any{
		"message": "  <p>Great <b>plans</b> here</p>  ",
		"meals":   []any{" <i>lunch</i> "},
	}
	once, err := Clean(in)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Clean(once)
	if err != nil {
		t.Fatal(err)
	}
	if once.(map[string]any)["message"] != twice.(map[string]any)["message"] {
		t.Errorf("not idempotent: %v vs %v", once, twice)
	}
	if once.(map[string]any)["meals"].([]any)[0] != "lunch" {
		t.Errorf("meals = %v", once)
	}
}

func TestDecodeBody(t *testing.T) {
	got, err := DecodeBody([]byte(`{"name":"<b>John</b>","rating":4}`))
	if err != nil {
		t.Fatal(err)
	}
	m := got.(map[string]any)
	if m["name"] != "John" || m["rating"] != float64(4) {
		t.Errorf("got %v", m)
	}
}

func TestDecodeBodyInvalidJSON(t *testing.T) {
	_, err := DecodeBody([]byte(`{"name":`))
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("err = %v, want ErrInvalidJSON", err)
	}
}

func TestDecodeBodyDangerousKeys(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"__proto__": {"admin": true}}`),
		[]byte(`{"constructor": 1}`),
		[]byte(`{"EXEC": "rm"}`),
		[]byte(`{"__proto​__": 1}`), // zero-width space stripped before matching
		[]byte(`{"outer": {"eval": "x"}}`),
	}
	for _, body := range cases {
		if _, err := DecodeBody(body); !errors.Is(err, ErrDangerousKey) {
			t.Errorf("DecodeBody(%s) err = %v, want ErrDangerousKey", body, err)
		}
	}
}

func TestDecodeBodyNestingDepth(t *testing.T) {
	deep := strings.Repeat(`{"a":`, MaxNestingDepth+1) + `1` + strings.Repeat(`}`, MaxNestingDepth+1)
	_, err := DecodeBody([]byte(deep))
	if !errors.Is(err, ErrNestingDepth) {
		t.Fatalf("err = %v, want ErrNestingDepth", err)
	}

	ok := strings.Repeat(`{"a":`, 5) + `1` + strings.Repeat(`}`, 5)
	if _, err := DecodeBody([]byte(ok)); err != nil {
		t.Fatalf("depth 5 should pass: %v", err)
	}
}

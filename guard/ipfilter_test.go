package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seacatering/mealsvc/guard"
)

func TestIPFilterAllowList(t *testing.T) {
	mw := guard.IPFilter(guard.IPFilterConfig{Allow: []string{"10.0.0.0/8"}})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("allowed IP: code = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.RemoteAddr = "203.0.113.9:4444"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outside allow list: code = %d, want 403", rec.Code)
	}
}

func TestIPFilterDenyTakesPrecedence(t *testing.T) {
	mw := guard.IPFilter(guard.IPFilterConfig{
		Allow: []string{"10.0.0.0/8"},
		Deny:  []string{"10.9.0.0/16"},
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.RemoteAddr = "10.9.1.1:1"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("denied subnet: code = %d, want 403", rec.Code)
	}
}

func TestIPFilterPanicsOnEmptyConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	guard.IPFilter(guard.IPFilterConfig{})
}

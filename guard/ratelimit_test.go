package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// storeAt returns a MemoryStore whose clock the test controls.
func storeAt(start time.Time) (*MemoryStore, *time.Time) {
	s := NewMemoryStore()
	now := start
	s.lastSweep = start
	s.now = func() time.Time { return now }
	return s, &now
}

func TestLimiterFixedWindow(t *testing.T) {
	store, now := storeAt(time.Unix(1_700_000_000, 0))
	lim := NewLimiterWithStore(store, 3, time.Second)

	for i := 1; i <= 3; i++ {
		if !lim.Allow("client-a") {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if lim.Allow("client-a") {
		t.Fatal("call 4 within the window must be denied")
	}

	// Other keys are unaffected.
	if !lim.Allow("client-b") {
		t.Fatal("independent key should be allowed")
	}

	// One full window after the first call, the counter resets and the
	// denied client is admitted again.
	*now = now.Add(time.Second + time.Millisecond)
	if !lim.Allow("client-a") {
		t.Fatal("call after window expiry should reset and be allowed")
	}
}

func TestLimiterResetCountsTheResettingHit(t *testing.T) {
	store, now := storeAt(time.Unix(1_700_000_000, 0))
	lim := NewLimiterWithStore(store, 2, time.Second)

	lim.Allow("k")
	lim.Allow("k")
	*now = now.Add(2 * time.Second)
	if !lim.Allow("k") {
		t.Fatal("first hit of new window should be allowed")
	}
	if !lim.Allow("k") {
		t.Fatal("second hit of new window should be allowed")
	}
	if lim.Allow("k") {
		t.Fatal("third hit of new window must be denied")
	}
}

func TestMemoryStoreSweepEvictsExpired(t *testing.T) {
	store, now := storeAt(time.Unix(1_700_000_000, 0))
	lim := NewLimiterWithStore(store, 1, time.Second)

	lim.Allow("stale")
	*now = now.Add(5 * time.Second)
	// Any hit after the sweep interval triggers eviction of expired windows.
	lim.Allow("fresh")

	store.mu.Lock()
	_, staleKept := store.entries["stale"]
	store.mu.Unlock()
	if staleKept {
		t.Error("expired window should have been swept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(RateLimitConfig{
		Limit:   2,
		Window:  time.Hour,
		KeyFunc: RemoteAddr(),
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 && rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if i == 2 {
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("request %d: expected 429, got %d", i+1, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("Content-Type = %q", ct)
			}
			if ra := rec.Header().Get("Retry-After"); ra != "3600" {
				t.Errorf("Retry-After = %q, want 3600", ra)
			}
			var pd map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&pd); err != nil {
				t.Fatalf("decode problem: %v", err)
			}
			if pd["type"] != "https://api.seacatering.id/errors/rate-limit" {
				t.Errorf("type = %v", pd["type"])
			}
			if pd["title"] != "Rate Limit Exceeded" {
				t.Errorf("title = %v", pd["title"])
			}
			if int(pd["status"].(float64)) != 429 {
				t.Errorf("status = %v", pd["status"])
			}
		}
	}
}

func TestRateLimitSharedStorePrefixedKeys(t *testing.T) {
	store := NewMemoryStore()
	login := RateLimit(RateLimitConfig{
		Limit:   1,
		Window:  time.Hour,
		KeyFunc: Prefixed("login", RemoteAddr()),
		Store:   store,
	})
	register := RateLimit(RateLimitConfig{
		Limit:   1,
		Window:  time.Hour,
		KeyFunc: Prefixed("register", RemoteAddr()),
		Store:   store,
	})

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	loginHandler, registerHandler := login(ok), register(ok)

	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	rec := httptest.NewRecorder()
	loginHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}

	// Exhausting the login limit must not consume the register limit.
	rec = httptest.NewRecorder()
	registerHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("register should still be allowed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	loginHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second login should be limited: %d", rec.Code)
	}
}

package guard

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/seacatering/mealsvc/errors"
)

// Store is the counting backend for the rate limiter. The in-memory
// implementation suits a single instance; a shared backend (Redis,
// memcached) can be swapped in for multi-instance deployments.
type Store interface {
	// Allow records a hit for key and reports whether the hit is within
	// limit for the current fixed window.
	Allow(key string, limit int, window time.Duration) bool
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// maxEntries bounds tracked keys. When exceeded, a sweep is forced and
// expired windows are evicted.
const maxEntries = 100_000

// MemoryStore is a fixed-window counter backed by a map. The first hit for
// a key opens a window; hits within it increment the count, and the first
// hit after expiry resets to a fresh window counting that hit.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*windowEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]*windowEntry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow implements Store.
func (s *MemoryStore) Allow(key string, limit int, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	// Lazy sweep: evict expired windows every window period or when the
	// map is full.
	if now.Sub(s.lastSweep) >= window || len(s.entries) >= maxEntries {
		for k, e := range s.entries {
			if now.After(e.resetAt) {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		s.entries[key] = &windowEntry{count: 1, resetAt: now.Add(window)}
		return true
	}
	if e.count >= limit {
		return false
	}
	e.count++
	return true
}

// Limiter enforces a fixed-window request limit per key.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// NewLimiter returns a Limiter backed by its own MemoryStore.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return NewLimiterWithStore(NewMemoryStore(), limit, window)
}

// NewLimiterWithStore returns a Limiter using the supplied Store. Multiple
// limiters may share one store; keys should carry a distinguishing prefix.
func NewLimiterWithStore(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow reports whether a request for key is permitted.
func (l *Limiter) Allow(key string) bool {
	return l.store.Allow(key, l.limit, l.window)
}

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	Limit   int
	Window  time.Duration
	KeyFunc KeyFunc // REQUIRED
	Store   Store   // optional; defaults to a private MemoryStore
}

// RateLimit returns middleware enforcing a fixed-window per-key limit.
// Rejected requests receive 429 with a Retry-After hint.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	lim := NewLimiterWithStore(store, cfg.Limit, cfg.Window)
	retryAfter := strconv.Itoa(max(int(cfg.Window.Seconds()), 1))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow(cfg.KeyFunc(r)) {
				w.Header().Set("Retry-After", retryAfter)
				writeProblem(w, r, errors.RateLimitError("Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

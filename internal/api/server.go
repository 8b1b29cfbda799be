// Package api wires the HTTP surface: routing, the middleware stack, and
// the request handlers. Every request flows through the same pipeline:
// session resolution, rate limiting, CSRF, body sanitization, validation,
// authorization, persistence.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seacatering/mealsvc/csrf"
	"github.com/seacatering/mealsvc/guard"
	"github.com/seacatering/mealsvc/health"
	"github.com/seacatering/mealsvc/httpkit"
	"github.com/seacatering/mealsvc/internal/auth"
	"github.com/seacatering/mealsvc/internal/store"
	"github.com/seacatering/mealsvc/metrics"
)

// Per-route rate limits, keyed by client IP for anonymous routes and by
// user ID for authenticated ones.
const (
	registerLimit    = 5
	registerWindow   = 5 * time.Minute
	loginLimit       = 10
	loginWindow      = 5 * time.Minute
	subCreateLimit   = 5
	subUpdateLimit   = 10
	subDeleteLimit   = 5
	subWindow        = time.Minute
	testimonialLimit = 3
	testimonialWin   = 5 * time.Minute
)

// Config holds the API surface settings.
type Config struct {
	CSRFSecret      string
	AllowedOrigins  []string
	TrustedProxies  []string // CIDRs whose X-Forwarded-For is believed
	AdminAllowCIDRs []string // optional allowlist for admin-only routes
	MaxBodyBytes    int64
	RequestTimeout  time.Duration
	RateLimitStore  guard.Store // optional shared backend; defaults to memory
}

// Server carries the dependencies shared by all handlers.
type Server struct {
	store  store.Store
	auth   *auth.Service
	signer *csrf.Signer
	logger *slog.Logger
	cfg    Config

	registerLimiter    *guard.Limiter
	subCreateLimiter   *guard.Limiter
	subUpdateLimiter   *guard.Limiter
	subDeleteLimiter   *guard.Limiter
	testimonialLimiter *guard.Limiter

	clientIP   guard.KeyFunc
	rlStore    guard.Store
	recorder   *metrics.Recorder
	rejections *metrics.CounterVec
}

// NewServer builds a Server. logger and st are required; recorder may be
// nil to disable metrics.
func NewServer(cfg Config, logger *slog.Logger, st store.Store, recorder *metrics.Recorder) *Server {
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20 // 1 MiB
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	rlStore := cfg.RateLimitStore
	if rlStore == nil {
		rlStore = guard.NewMemoryStore()
	}

	var clientIP guard.KeyFunc
	if len(cfg.TrustedProxies) > 0 {
		clientIP = guard.XForwardedFor(cfg.TrustedProxies...)
	} else {
		clientIP = guard.ClientIP()
	}

	var rejections *metrics.CounterVec
	if recorder != nil {
		rejections = recorder.Counter("rejections_total")
	}

	return &Server{
		store:  st,
		auth:   auth.NewService(st, st),
		signer: csrf.NewSigner(cfg.CSRFSecret),
		logger: logger,
		cfg:    cfg,

		registerLimiter:    guard.NewLimiterWithStore(rlStore, registerLimit, registerWindow),
		subCreateLimiter:   guard.NewLimiterWithStore(rlStore, subCreateLimit, subWindow),
		subUpdateLimiter:   guard.NewLimiterWithStore(rlStore, subUpdateLimit, subWindow),
		subDeleteLimiter:   guard.NewLimiterWithStore(rlStore, subDeleteLimit, subWindow),
		testimonialLimiter: guard.NewLimiterWithStore(rlStore, testimonialLimit, testimonialWin),

		clientIP:   clientIP,
		rlStore:    rlStore,
		recorder:   recorder,
		rejections: rejections,
	}
}

// Routes assembles the router and middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(httpkit.RequestID)
	r.Use(httpkit.Recovery(s.logger))
	r.Use(httpkit.Logging(s.logger))
	r.Use(httpkit.Metrics(s.recorder))
	r.Use(httpkit.Tracing())
	r.Use(guard.SecurityHeaders(guard.DefaultSecurityHeaders))
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(guard.CORS(guard.CORSConfig{
			AllowOrigins:     s.cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		}))
	}
	r.Use(guard.MaxBody(s.cfg.MaxBodyBytes))
	r.Use(guard.Timeout(s.cfg.RequestTimeout))
	r.Use(s.auth.Middleware())

	r.Get("/healthz", health.Handler(map[string]health.Check{
		"db": s.store.Ping,
	}).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.With(guard.RateLimit(guard.RateLimitConfig{
			Limit:   registerLimit,
			Window:  registerWindow,
			KeyFunc: guard.Prefixed("register", s.clientIP),
			Store:   s.rlStore,
		})).Post("/auth/register", s.handleRegister)

		r.With(guard.RateLimit(guard.RateLimitConfig{
			Limit:   loginLimit,
			Window:  loginWindow,
			KeyFunc: guard.Prefixed("login", s.clientIP),
			Store:   s.rlStore,
		})).Post("/auth/login", s.handleLogin)

		r.Post("/auth/logout", s.handleLogout)
		r.Get("/csrf-token", s.handleCSRFToken)
		r.Get("/meal-plans", s.handleListMealPlans)

		r.Get("/testimonials", s.handleListTestimonials)
		r.Post("/testimonials", s.handleCreateTestimonial)

		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Post("/subscriptions", s.handleCreateSubscription)
		r.Put("/subscriptions", s.handleUpdateSubscription)
		r.Delete("/subscriptions", s.handleDeleteSubscription)
	})

	if len(s.cfg.AdminAllowCIDRs) > 0 {
		r.Group(func(r chi.Router) {
			r.Use(guard.IPFilter(guard.IPFilterConfig{
				Allow:   s.cfg.AdminAllowCIDRs,
				KeyFunc: s.clientIP,
			}))
			r.Get("/api/admin/subscriptions", s.handleAdminListSubscriptions)
		})
	}

	return r
}

// SweepSessions runs periodic expired-session cleanup until ctx is done.
// Mount it as a lifecycle component alongside the HTTP listener.
func (s *Server) SweepSessions(interval time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := s.store.DeleteExpiredSessions(ctx)
				if err != nil {
					s.logger.WarnContext(ctx, "session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					s.logger.InfoContext(ctx, "expired sessions removed", "count", n)
				}
			}
		}
	}
}

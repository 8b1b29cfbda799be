package guard

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowOrigins     []string      // required; ["*"] for wildcard
	AllowMethods     []string      // defaults to GET, POST, PUT, DELETE, HEAD
	AllowHeaders     []string      // defaults to Origin, Content-Type, Accept, X-CSRF-Token
	MaxAge           time.Duration // preflight cache duration
	AllowCredentials bool          // emits Access-Control-Allow-Credentials: true
}

// corsHeaders holds the precomputed response header values.
type corsHeaders struct {
	methods  string
	headers  string
	maxAge   string
	origins  map[string]struct{}
	wildcard bool
}

func (c corsHeaders) allows(origin string) bool {
	if c.wildcard {
		return true
	}
	_, ok := c.origins[origin]
	return ok
}

// CORS returns middleware handling cross-origin requests: preflights get a
// 204 with the allow headers, matching-origin requests get the CORS headers,
// and everything else passes through bare. The browser front end sends the
// session cookie, so AllowCredentials with a wildcard origin panics.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowOrigins) == 0 {
		panic("guard: CORSConfig.AllowOrigins must not be empty")
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD"}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token"}
	}

	pre := corsHeaders{
		methods: strings.Join(cfg.AllowMethods, ", "),
		headers: strings.Join(cfg.AllowHeaders, ", "),
		origins: make(map[string]struct{}, len(cfg.AllowOrigins)),
	}
	if cfg.MaxAge > 0 {
		pre.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			pre.wildcard = true
		}
		pre.origins[o] = struct{}{}
	}
	if cfg.AllowCredentials && pre.wildcard {
		panic("guard: CORSConfig.AllowCredentials cannot be used with wildcard origin \"*\"")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !pre.allows(origin) {
				// Same-origin or disallowed: no CORS headers at all.
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if pre.wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", pre.methods)
				h.Set("Access-Control-Allow-Headers", pre.headers)
				if pre.maxAge != "" {
					h.Set("Access-Control-Max-Age", pre.maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

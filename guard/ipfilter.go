package guard

import (
	"net"
	"net/http"

	"github.com/seacatering/mealsvc/errors"
)

// IPFilterConfig configures the IP filter middleware. It protects the
// admin surface: mount it on admin routes with an Allow list of operator
// networks.
type IPFilterConfig struct {
	Allow   []string // CIDR allowlist
	Deny    []string // CIDR denylist, checked before Allow
	KeyFunc KeyFunc  // IP extraction, defaults to RemoteAddr
}

// IPFilter returns middleware rejecting requests by client IP with a 403.
// Deny entries win over Allow entries; a non-empty Allow list rejects
// everything outside it. Panics on an empty config or a malformed CIDR so
// a misconfigured admin surface fails at startup rather than serving open.
func IPFilter(cfg IPFilterConfig) func(http.Handler) http.Handler {
	if len(cfg.Allow) == 0 && len(cfg.Deny) == 0 {
		panic("guard: IPFilterConfig must have at least one Allow or Deny entry")
	}

	allow := mustParseCIDRs(cfg.Allow)
	deny := mustParseCIDRs(cfg.Deny)
	extract := cfg.KeyFunc
	if extract == nil {
		extract = RemoteAddr()
	}

	reject := func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, errors.ForbiddenError("access denied"))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := net.ParseIP(extract(r))
			switch {
			case ip == nil:
				reject(w, r)
			case containsIP(deny, ip):
				reject(w, r)
			case len(allow) > 0 && !containsIP(allow, ip):
				reject(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("guard: invalid CIDR: " + cidr + ": " + err.Error())
		}
		nets = append(nets, n)
	}
	return nets
}

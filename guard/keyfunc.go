package guard

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extracts a rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// remoteHost strips the port from r.RemoteAddr, returning the whole value
// when it has no port.
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RemoteAddr keys on the peer address without the port.
func RemoteAddr() KeyFunc {
	return remoteHost
}

// XForwardedFor keys on the X-Forwarded-For client IP, but only when the
// peer address sits inside one of the trusted CIDR ranges; anything else
// keys on the peer address itself. Malformed CIDRs are ignored.
func XForwardedFor(trustedCIDRs ...string) KeyFunc {
	var trusted []*net.IPNet
	for _, cidr := range trustedCIDRs {
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			trusted = append(trusted, n)
		}
	}
	return func(r *http.Request) string {
		host := remoteHost(r)
		peer := net.ParseIP(host)
		if peer == nil || !containsIP(trusted, peer) {
			return host
		}
		if ip := forwardedClientIP(r); ip != "" {
			return ip
		}
		return host
	}
}

// ClientIP keys on the proxy-header chain: X-Forwarded-For first entry,
// then X-Real-IP, then CF-Connecting-IP, then the literal "unknown". Only
// safe behind a proxy that overwrites these headers; otherwise use
// XForwardedFor with trusted CIDRs.
func ClientIP() KeyFunc {
	return func(r *http.Request) string {
		if ip := forwardedClientIP(r); ip != "" {
			return ip
		}
		for _, header := range []string{"X-Real-IP", "CF-Connecting-IP"} {
			if ip := r.Header.Get(header); ip != "" {
				return ip
			}
		}
		return "unknown"
	}
}

// forwardedClientIP returns the first well-formed IP in X-Forwarded-For,
// or "".
func forwardedClientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	first = strings.TrimSpace(first)
	if net.ParseIP(first) == nil {
		return ""
	}
	return first
}

// Prefixed namespaces a KeyFunc's keys so independent limits can share one
// Store.
func Prefixed(prefix string, kf KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		return prefix + ":" + kf(r)
	}
}

// HeaderKey keys on a request header's value, falling back to the peer
// address when the header is absent.
func HeaderKey(header string) KeyFunc {
	return func(r *http.Request) string {
		if v := r.Header.Get(header); v != "" {
			return v
		}
		return remoteHost(r)
	}
}

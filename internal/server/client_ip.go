package server

import (
	"net"
	"net/http"
	"strings"
)

// clientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// connection's remote host. Callers can set these headers freely, so the
// result is recorded with votes but only keys the rate limiter when proxy
// headers are trusted.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peerIP(r)
}

// peerIP returns the host of the connection's remote address.
func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitKey picks the address the limiter counts against.
func rateLimitKey(trustProxy bool) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		if trustProxy {
			return clientIP(r), nil
		}
		return peerIP(r), nil
	}
}

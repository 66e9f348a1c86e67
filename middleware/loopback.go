package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/blogem/deskauth/userctx"
)

// LoopbackOnly rejects requests that did not come from this machine or that
// name a non-loopback host, which blocks DNS-rebinding pages from reaching the
// callback route.
func LoopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackAddr(getIPAddress(r)) || !isLoopbackHost(r.Host) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithFlowID adds the flow ID to every request context
func WithFlowID(flowID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := userctx.SetFlowID(r.Context(), flowID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isLoopbackAddr(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func isLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	return isLoopbackAddr(host)
}

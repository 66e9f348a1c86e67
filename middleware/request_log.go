package middleware

import (
	"net"
	"net/http"
	"sort"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/blogem/deskauth/userctx"
)

// RequestLogger logs every request to the loopback listener. Only the names of
// query parameters are logged; their values carry the code and state.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("loopback request",
				zap.String("flow_id", userctx.GetFlowID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Strings("params", queryKeys(r)),
				zap.String("ip", getIPAddress(r)),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

// getIPAddress extracts the IP address from RemoteAddr. Forwarding headers are
// ignored since nothing proxies a loopback listener.
func getIPAddress(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// queryKeys returns the sorted query parameter names
func queryKeys(r *http.Request) []string {
	query := r.URL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/blogem/deskauth/userctx"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestLoopbackOnly(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		host       string
		want       int
	}{
		{"ipv4 loopback", "127.0.0.1:50000", "127.0.0.1:8080", http.StatusOK},
		{"localhost name", "127.0.0.1:50000", "localhost:8080", http.StatusOK},
		{"ipv6 loopback", "[::1]:50000", "[::1]:8080", http.StatusOK},
		{"remote client", "192.0.2.1:1234", "127.0.0.1:8080", http.StatusForbidden},
		{"rebinding host", "127.0.0.1:50000", "evil.example:8080", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/callback", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Host = tt.host
			rec := httptest.NewRecorder()

			LoopbackOnly(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWithFlowID(t *testing.T) {
	var got string
	handler := WithFlowID("flow-1")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = userctx.GetFlowID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback", nil))

	assert.Equal(t, "flow-1", got)
}

func TestRequestLogger_LogsParamNamesOnly(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	handler := WithFlowID("flow-1")(RequestLogger(zap.New(core))(ok))

	req := httptest.NewRequest(http.MethodGet, "/callback?state=secret-state&code=secret-code", nil)
	req.RemoteAddr = "127.0.0.1:50000"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "flow-1", fields["flow_id"])
	assert.Equal(t, "/callback", fields["path"])
	assert.Equal(t, []interface{}{"code", "state"}, fields["params"])
	assert.Equal(t, "127.0.0.1", fields["ip"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

package services

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// freePort returns a loopback port that was free a moment ago
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// fakeBrowser plays the user: it reads the state from the authorization URL
// and sends the redirect built by query to the loopback port.
type fakeBrowser struct {
	port  int
	query func(state string) string
	err   error

	mu     sync.Mutex
	opened []string
	status int
}

func (b *fakeBrowser) Open(rawURL string) error {
	b.mu.Lock()
	b.opened = append(b.opened, rawURL)
	b.mu.Unlock()

	if b.query != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		callback := fmt.Sprintf("http://127.0.0.1:%d/callback?%s", b.port, b.query(u.Query().Get("state")))
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		resp.Body.Close()

		b.mu.Lock()
		b.status = resp.StatusCode
		b.mu.Unlock()
	}
	return b.err
}

func (b *fakeBrowser) openedURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

func (b *fakeBrowser) lastStatus() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

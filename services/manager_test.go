package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/deskauth/authenticator"
)

func TestManager_NotInitialized(t *testing.T) {
	manager := NewManager()

	_, err := manager.StartOAuthFlow(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = manager.GetUserInfo(context.Background(), "tok1")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestManager_InitializeRejectsInvalidConfig(t *testing.T) {
	manager := NewManager()

	err := manager.Initialize("", "", 8080)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Client ID is required")

	_, err = manager.StartOAuthFlow(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestManager_GetUserInfo(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","name":"Ada"}`))
	}))
	defer provider.Close()

	manager := NewManager(
		WithHTTPClient(provider.Client()),
		WithEndpoints(authenticator.Endpoints{ProfileURL: provider.URL + "/me"}),
	)
	require.NoError(t, manager.Initialize("client-1", "secret-1", 0))

	user, err := manager.GetUserInfo(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "Ada", user.DisplayName())
}

func TestManager_FailedReinitializeKeepsConfig(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer provider.Close()

	manager := NewManager(
		WithHTTPClient(provider.Client()),
		WithEndpoints(authenticator.Endpoints{ProfileURL: provider.URL + "/me"}),
	)
	require.NoError(t, manager.Initialize("client-1", "secret-1", 8080))
	require.Error(t, manager.Initialize("client-2", "secret-2", 8080, WithRedirectURL("https://example.com/callback")))

	user, err := manager.GetUserInfo(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
}

func TestManager_RejectsOverlappingFlows(t *testing.T) {
	port := freePort(t)
	opened := make(chan struct{})
	release := make(chan struct{})
	browser := BrowserOpenerFunc(func(string) error {
		close(opened)
		<-release
		return nil
	})

	manager := NewManager(WithBrowser(browser))
	require.NoError(t, manager.Initialize("client-1", "secret-1", port, WithCallbackTimeout(10*time.Millisecond)))

	done := make(chan error, 1)
	go func() {
		_, err := manager.StartOAuthFlow(context.Background())
		done <- err
	}()

	<-opened
	_, err := manager.StartOAuthFlow(context.Background())
	assert.ErrorIs(t, err, ErrFlowInProgress)

	close(release)
	assert.Equal(t, authenticator.KindServer, authenticator.KindOf(<-done))
}

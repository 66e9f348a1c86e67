package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/blogem/deskauth/authenticator"
	"github.com/blogem/deskauth/metrics"
	"github.com/blogem/deskauth/models"
)

var (
	// ErrNotInitialized is returned before Initialize has been called
	ErrNotInitialized = errors.New("OAuth manager not initialized")

	// ErrFlowInProgress is returned when a flow is started while another one is waiting
	ErrFlowInProgress = errors.New("an OAuth flow is already in progress")
)

// Manager is the handle the host application holds. It owns the current
// configuration and allows one flow at a time.
type Manager struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	browser   BrowserOpener
	client    *http.Client
	endpoints authenticator.Endpoints

	mu      sync.RWMutex
	service *OAuthService

	running atomic.Bool
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = recorder }
}

// WithBrowser sets how the authorization URL is opened
func WithBrowser(browser BrowserOpener) ManagerOption {
	return func(m *Manager) { m.browser = browser }
}

// WithHTTPClient sets the client used for the token and profile requests
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) { m.client = client }
}

// WithEndpoints overrides the provider endpoints
func WithEndpoints(endpoints authenticator.Endpoints) ManagerOption {
	return func(m *Manager) { m.endpoints = endpoints }
}

// FlowOption adjusts the configuration built by Initialize
type FlowOption func(*models.FlowConfig)

// WithRedirectURL sends redirect_uri with the authorization and token requests
func WithRedirectURL(redirectURL string) FlowOption {
	return func(c *models.FlowConfig) { c.RedirectURL = redirectURL }
}

// WithCallbackTimeout bounds the wait for the browser redirect
func WithCallbackTimeout(timeout time.Duration) FlowOption {
	return func(c *models.FlowConfig) { c.CallbackTimeout = timeout }
}

// WithStrictState rejects redirects that carry no state parameter
func WithStrictState(strict bool) FlowOption {
	return func(c *models.FlowConfig) { c.StrictState = strict }
}

// NewManager creates an uninitialized manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		browser:   SystemBrowser{},
		endpoints: authenticator.DefaultEndpoints(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Initialize replaces the flow configuration. A zero redirectPort means the default port.
// Flows already running keep the configuration they started with.
func (m *Manager) Initialize(clientID, clientSecret string, redirectPort int, opts ...FlowOption) error {
	cfg := models.FlowConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectPort: redirectPort,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.WithDefaults()

	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid OAuth configuration: %s", strings.Join(errs, "; "))
	}

	provider := authenticator.NewOAuth2Provider(cfg, m.endpoints, m.client)
	service := NewOAuthService(cfg, provider, m.browser, m.logger, m.metrics)

	m.mu.Lock()
	m.service = service
	m.mu.Unlock()

	m.logger.Info("OAuth manager initialized", zap.Int("redirect_port", cfg.RedirectPort))
	return nil
}

// StartOAuthFlow runs one flow with the current configuration
func (m *Manager) StartOAuthFlow(ctx context.Context) (*models.AuthResult, error) {
	service, err := m.current()
	if err != nil {
		return nil, err
	}

	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrFlowInProgress
	}
	defer m.running.Store(false)

	return service.StartFlow(ctx)
}

// GetUserInfo fetches the profile for a token the host already holds
func (m *Manager) GetUserInfo(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	service, err := m.current()
	if err != nil {
		return nil, err
	}
	return service.GetUserInfo(ctx, accessToken)
}

func (m *Manager) current() (*OAuthService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.service == nil {
		return nil, ErrNotInitialized
	}
	return m.service, nil
}

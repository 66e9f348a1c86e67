package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blogem/deskauth/authenticator"
	"github.com/blogem/deskauth/metrics"
	"github.com/blogem/deskauth/models"
	"github.com/blogem/deskauth/userctx"
)

const (
	missingCodeError       = "missing_code"
	missingCodeDescription = "Authorization code not provided"

	// shutdownTimeout bounds how long the listener gets to finish the confirmation page
	shutdownTimeout = 5 * time.Second
)

// OAuthService runs loopback authorization-code flows for one configuration
type OAuthService struct {
	config   models.FlowConfig
	provider authenticator.Provider
	browser  BrowserOpener
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewOAuthService creates a flow runner. A nil browser only logs the authorization URL.
func NewOAuthService(cfg models.FlowConfig, provider authenticator.Provider, browser BrowserOpener, logger *zap.Logger, m *metrics.Metrics) *OAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthService{
		config:   cfg.WithDefaults(),
		provider: provider,
		browser:  browser,
		logger:   logger,
		metrics:  m,
	}
}

// StartFlow runs one complete attempt: browser authorization, loopback redirect,
// token exchange and profile fetch. It returns a result only if every step succeeds.
func (s *OAuthService) StartFlow(ctx context.Context) (result *models.AuthResult, err error) {
	started := time.Now()
	flowID := uuid.NewString()
	ctx = userctx.SetFlowID(ctx, flowID)
	logger := s.logger.With(zap.String("flow_id", flowID))

	defer func() {
		s.metrics.ObserveFlow(flowResult(err), time.Since(started))
	}()

	logger.Info("starting OAuth flow", zap.Int("redirect_port", s.config.RedirectPort))

	state, err := authenticator.GenerateState()
	if err != nil {
		return nil, authenticator.ServerError("failed to generate state", err)
	}
	authURL := s.provider.AuthURL(state)

	server := NewLoopbackServer(s.config.RedirectPort, logger, s.metrics)
	if err := server.Start(ctx, state, s.config.StrictState); err != nil {
		logger.Error("failed to start loopback server", zap.Error(err))
		return nil, err
	}
	closeServer := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Close(shutdownCtx); err != nil {
			logger.Warn("loopback server did not shut down cleanly", zap.Error(err))
		}
	}
	defer closeServer()

	s.openBrowser(logger, authURL)

	waitCtx, cancel := context.WithTimeout(ctx, s.config.CallbackTimeout)
	defer cancel()

	outcome, err := server.Wait(waitCtx)
	closeServer()
	if err != nil {
		logger.Warn("no browser redirect received", zap.Error(err))
		return nil, err
	}

	code, err := codeFromOutcome(outcome)
	if err != nil {
		logger.Warn("authorization rejected", zap.String("outcome", string(outcome.Kind)))
		return nil, err
	}

	token, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		// The error may carry the token endpoint's body
		logger.Error("token exchange failed", zap.String("kind", string(authenticator.KindOf(err))))
		logger.Debug("token exchange failure detail", zap.Error(err))
		return nil, err
	}

	user, err := s.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	logger.Info("OAuth flow completed successfully", zap.String("user_id", user.ID))

	return &models.AuthResult{
		AccessToken: token.AccessToken,
		User:        *user,
	}, nil
}

// GetUserInfo fetches the profile of the user behind accessToken
func (s *OAuthService) GetUserInfo(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	logger := s.logger.With(zap.String("flow_id", userctx.GetFlowID(ctx)))
	logger.Debug("getting user info")

	user, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		logger.Error("failed to get user info", zap.String("kind", string(authenticator.KindOf(err))))
		logger.Debug("user info failure detail", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// openBrowser is best effort; the flow continues when the browser cannot be launched
func (s *OAuthService) openBrowser(logger *zap.Logger, authURL string) {
	if s.browser == nil {
		logger.Info("please open this URL in your browser", zap.String("url", authURL))
		return
	}

	if err := s.browser.Open(authURL); err != nil {
		logger.Warn("failed to open browser", zap.Error(err))
		logger.Info("please open this URL in your browser", zap.String("url", authURL))
		return
	}
	logger.Info("opened browser for OAuth authorization")
}

// codeFromOutcome maps a non-code outcome to the error that aborts the flow
func codeFromOutcome(outcome models.CallbackOutcome) (string, error) {
	switch outcome.Kind {
	case models.OutcomeCode:
		return outcome.Code, nil
	case models.OutcomeProviderError:
		return "", authenticator.AuthorizationFailedError(outcome.Error, outcome.Description)
	case models.OutcomeMissingCode:
		return "", authenticator.AuthorizationFailedError(missingCodeError, missingCodeDescription)
	case models.OutcomeStateMismatch:
		return "", authenticator.InvalidStateError()
	}
	return "", authenticator.ServerError("unknown callback outcome "+string(outcome.Kind), nil)
}

// flowResult labels a finished flow for metrics
func flowResult(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if kind := authenticator.KindOf(err); kind != "" {
		return string(kind)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}

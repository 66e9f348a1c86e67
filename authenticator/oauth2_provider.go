package authenticator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/blogem/deskauth/models"
)

// maxResponseBytes caps how much of a provider response is read
const maxResponseBytes = 1 << 20

// OAuth2Provider implements the Provider interface on top of golang.org/x/oauth2
type OAuth2Provider struct {
	config    oauth2.Config
	endpoints Endpoints
	client    *http.Client
}

// NewOAuth2Provider creates a provider for the given flow configuration.
// A nil client gets a default client with a request timeout.
func NewOAuth2Provider(cfg models.FlowConfig, endpoints Endpoints, client *http.Client) *OAuth2Provider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	conf := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpoints.AuthURL,
			TokenURL: endpoints.TokenURL,
			// client_id and client_secret travel in the form body
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &OAuth2Provider{
		config:    conf,
		endpoints: endpoints,
		client:    client,
	}
}

// AuthURL returns the authorization URL the browser is sent to
func (p *OAuth2Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token
func (p *OAuth2Provider) ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error) {
	tokenClient := *p.client
	tokenClient.Transport = jsonTokenTransport{base: p.client.Transport}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &tokenClient)

	oauth2Token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(err)
	}

	// Convert oauth2.Token to our TokenResponse type
	token := &models.TokenResponse{
		AccessToken: oauth2Token.AccessToken,
		TokenType:   oauth2Token.TokenType,
	}
	if oauth2Token.ExpiresIn > 0 {
		expiresIn := oauth2Token.ExpiresIn
		token.ExpiresIn = &expiresIn
	}
	if scope, ok := oauth2Token.Extra("scope").(string); ok && scope != "" {
		token.Scope = &scope
	}

	return token, nil
}

// FetchProfile gets the authenticated user's profile with a bearer token
func (p *OAuth2Provider) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoints.ProfileURL, nil)
	if err != nil {
		return nil, NetworkError("failed to build user info request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NetworkError("failed to get user info", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NetworkError("failed to read user info", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, NetworkError(fmt.Sprintf("failed to get user info: %s", body), nil)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, SerializationError("failed to decode user info", err)
	}
	profile.Normalize()

	return &profile, nil
}

// jsonTokenTransport marks successful token responses as JSON when the
// provider labels them text/plain or not at all. oauth2 would otherwise decode
// them as form data.
type jsonTokenTransport struct {
	base http.RoundTripper
}

func (t jsonTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode/100 != 2 {
		return resp, err
	}

	mediaType, _, parseErr := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if parseErr != nil || mediaType == "text/plain" {
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp, nil
}

// classifyExchangeError maps oauth2 failures onto the error taxonomy
func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		body := string(retrieveErr.Body)
		if body == "" {
			body = retrieveErr.ErrorCode
		}
		return TokenExchangeError(body, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return NetworkError("token request failed", err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NetworkError("token request failed", err)
	}

	// oauth2 reports undecodable bodies and a missing access_token as plain errors
	return SerializationError("failed to decode token response", err)
}

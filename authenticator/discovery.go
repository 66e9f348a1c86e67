package authenticator

import (
	"context"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DiscoverEndpoints resolves provider endpoints from an OpenID Connect discovery document
func DiscoverEndpoints(ctx context.Context, issuer string, client *http.Client) (Endpoints, error) {
	if issuer == "" {
		return Endpoints{}, errors.New("issuer is required")
	}
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return Endpoints{}, NetworkError("failed to discover provider", err)
	}

	var claims struct {
		UserInfoURL string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&claims); err != nil {
		return Endpoints{}, SerializationError("failed to decode discovery document", err)
	}
	if claims.UserInfoURL == "" {
		return Endpoints{}, NetworkError("provider does not publish a userinfo endpoint", nil)
	}

	endpoint := provider.Endpoint()
	return Endpoints{
		AuthURL:    endpoint.AuthURL,
		TokenURL:   endpoint.TokenURL,
		ProfileURL: claims.UserInfoURL,
	}, nil
}

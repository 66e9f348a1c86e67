package authenticator

import (
	"context"

	"github.com/blogem/deskauth/models"
)

// Endpoints holds the provider URLs used by a flow
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// DefaultEndpoints returns the Intercom endpoints the desktop app registers against
func DefaultEndpoints() Endpoints {
	return Endpoints{
		AuthURL:    "https://app.intercom.com/oauth",
		TokenURL:   "https://api.intercom.io/auth/eagle/token",
		ProfileURL: "https://api.intercom.io/me",
	}
}

// Provider interface abstracts OAuth provider operations
type Provider interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error)
	FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error)
}

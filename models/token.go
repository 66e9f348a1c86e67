package models

// TokenResponse represents the provider's token endpoint reply
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   *int64  `json:"expires_in,omitempty"`
	Scope       *string `json:"scope,omitempty"`
}

// AuthResult is the output of a completed flow
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	User        UserProfile `json:"user"`
}

package models

// UserProfile represents the authenticated identity returned by the provider
type UserProfile struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	App    *App    `json:"app,omitempty"`
	Avatar *Avatar `json:"avatar,omitempty"`

	// Subject is filled by OpenID Connect userinfo endpoints instead of ID
	Subject string `json:"sub,omitempty"`
}

// App is the provider workspace the user authorized
type App struct {
	IDCode    string `json:"id_code"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Avatar holds the user's picture
type Avatar struct {
	ImageURL *string `json:"image_url,omitempty"`
}

// Normalize promotes the OIDC subject to the profile ID when the provider sent no ID
func (p *UserProfile) Normalize() {
	if p.ID == "" && p.Subject != "" {
		p.ID = p.Subject
	}
}

// DisplayName returns the best human-readable label for the user
func (p *UserProfile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	if p.Email != nil && *p.Email != "" {
		return *p.Email
	}
	return p.ID
}

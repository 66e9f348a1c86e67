package models

import (
	"net"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultRedirectPort is the loopback port used when none is configured
	DefaultRedirectPort = 8080

	// DefaultCallbackTimeout bounds how long a flow waits for the browser redirect
	DefaultCallbackTimeout = 5 * time.Minute
)

// FlowConfig holds the static parameters of an authorization flow
type FlowConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
	RedirectPort int    `json:"redirect_port"`

	// RedirectURL is sent as redirect_uri only when set. Providers that infer
	// the redirect from the app registration expect it to be absent.
	RedirectURL string `json:"redirect_url,omitempty"`

	CallbackTimeout time.Duration `json:"callback_timeout"`

	// StrictState rejects a callback that carries no state parameter at all
	StrictState bool `json:"strict_state"`
}

// WithDefaults returns a copy with zero values replaced by defaults
func (c FlowConfig) WithDefaults() FlowConfig {
	if c.RedirectPort == 0 {
		c.RedirectPort = DefaultRedirectPort
	}
	if c.CallbackTimeout <= 0 {
		c.CallbackTimeout = DefaultCallbackTimeout
	}
	return c
}

// Validate validates the flow configuration
func (c *FlowConfig) Validate() []string {
	var errors []string

	if strings.TrimSpace(c.ClientID) == "" {
		errors = append(errors, "Client ID is required")
	}

	if strings.TrimSpace(c.ClientSecret) == "" {
		errors = append(errors, "Client secret is required")
	}

	if c.RedirectPort < 0 || c.RedirectPort > 65535 {
		errors = append(errors, "Redirect port must be between 0 and 65535")
	}

	if c.RedirectURL != "" && !isLoopbackURL(c.RedirectURL) {
		errors = append(errors, "Redirect URL must point at the loopback interface")
	}

	return errors
}

// isLoopbackURL reports whether raw is an http URL whose host is localhost or
// a loopback IP
func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

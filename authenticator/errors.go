package authenticator

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies the failure class of an Error
type Kind string

const (
	KindNetwork             Kind = "network"
	KindInvalidState        Kind = "invalid_state"
	KindAuthorizationFailed Kind = "authorization_failed"
	KindTokenExchange       Kind = "token_exchange"
	KindServer              Kind = "server"
	KindSerialization       Kind = "serialization"
)

// Error is the failure of a flow step. Every step fails with one of these.
type Error struct {
	Kind    Kind
	Message string

	// Code and Description are set for KindAuthorizationFailed
	Code        string
	Description string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return "network error: " + e.Message
	case KindInvalidState:
		return "invalid state parameter - possible CSRF attack"
	case KindAuthorizationFailed:
		return fmt.Sprintf("authorization failed: %s - %s", e.Code, e.Description)
	case KindTokenExchange:
		return "token exchange failed: " + e.Message
	case KindServer:
		return "server error: " + e.Message
	case KindSerialization:
		return "serialization error: " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether starting a new flow could plausibly succeed
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork
}

// MarshalJSON keeps the variant and its fields so the host can branch on them
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind        Kind   `json:"kind"`
		Message     string `json:"message"`
		Code        string `json:"error,omitempty"`
		Description string `json:"description,omitempty"`
		Retryable   bool   `json:"retryable"`
	}{
		Kind:        e.Kind,
		Message:     e.Error(),
		Code:        e.Code,
		Description: e.Description,
		Retryable:   e.Retryable(),
	})
}

// KindOf returns the Kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// NetworkError wraps a transport failure or an unexpected response
func NetworkError(message string, err error) *Error {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// InvalidStateError reports a CSRF state mismatch
func InvalidStateError() *Error {
	return &Error{Kind: KindInvalidState}
}

// AuthorizationFailedError reports a denial by the provider or a malformed redirect
func AuthorizationFailedError(code, description string) *Error {
	return &Error{Kind: KindAuthorizationFailed, Code: code, Description: description}
}

// TokenExchangeError carries the token endpoint's response body verbatim
func TokenExchangeError(body string, err error) *Error {
	return &Error{Kind: KindTokenExchange, Message: "failed to exchange code for token: " + body, Err: err}
}

// ServerError reports a failure of the loopback receiver
func ServerError(message string, err error) *Error {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &Error{Kind: KindServer, Message: message, Err: err}
}

// SerializationError reports a response body that could not be decoded
func SerializationError(message string, err error) *Error {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &Error{Kind: KindSerialization, Message: message, Err: err}
}

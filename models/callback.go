package models

// OutcomeKind identifies which variant a CallbackOutcome holds
type OutcomeKind string

const (
	OutcomeCode          OutcomeKind = "code"
	OutcomeProviderError OutcomeKind = "provider_error"
	OutcomeStateMismatch OutcomeKind = "state_mismatch"
	OutcomeMissingCode   OutcomeKind = "missing_code"
)

// CallbackOutcome is the result of the single redirect received by the loopback server
type CallbackOutcome struct {
	Kind OutcomeKind `json:"kind"`

	// Code is set for OutcomeCode
	Code string `json:"-"`

	// Error and Description are set for OutcomeProviderError
	Error       string `json:"error,omitempty"`
	Description string `json:"description,omitempty"`
}

// Succeeded reports whether the redirect carried a usable authorization code
func (o CallbackOutcome) Succeeded() bool {
	return o.Kind == OutcomeCode
}

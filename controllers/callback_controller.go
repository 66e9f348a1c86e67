package controllers

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/blogem/deskauth/metrics"
	"github.com/blogem/deskauth/models"
	"github.com/blogem/deskauth/userctx"
)

// unknownErrorText stands in for an error_description the provider left out
const unknownErrorText = "Unknown error"

// CallbackController receives the provider redirect on the loopback listener
// and hands exactly one outcome to the waiting flow.
type CallbackController struct {
	logger  *zap.Logger
	metrics *metrics.Metrics

	// mu guards the slot and the state it is checked against; the slot is
	// nil before Expect and after the first delivery.
	mu       sync.Mutex
	slot     chan models.CallbackOutcome
	expected string
	strict   bool
}

// NewCallbackController creates a controller with no flow waiting
func NewCallbackController(logger *zap.Logger, m *metrics.Metrics) *CallbackController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackController{logger: logger, metrics: m}
}

// Expect installs a single-use handoff for the flow that generated state.
// The returned channel receives at most one outcome.
func (cc *CallbackController) Expect(state string, strict bool) <-chan models.CallbackOutcome {
	slot := make(chan models.CallbackOutcome, 1)

	cc.mu.Lock()
	cc.slot = slot
	cc.expected = state
	cc.strict = strict
	cc.mu.Unlock()

	return slot
}

// deliver classifies the query and takes the slot; only the first caller gets ok
func (cc *CallbackController) deliver(query url.Values) (models.CallbackOutcome, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.slot == nil {
		return models.CallbackOutcome{}, false
	}

	outcome := Classify(query, cc.expected, cc.strict)
	cc.slot <- outcome
	cc.slot = nil
	cc.expected = ""

	return outcome, true
}

// Callback handles the redirect from the provider
func (cc *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	logger := cc.logger.With(zap.String("flow_id", userctx.GetFlowID(r.Context())))

	outcome, ok := cc.deliver(r.URL.Query())
	if !ok {
		logger.Warn("callback ignored, no flow is waiting")
		_ = renderPage(w, http.StatusConflict, page{
			Title:   "Authorization Already Handled",
			Heading: "This sign-in was already handled",
			Message: "You can close this window and return to the application.",
		})
		return
	}

	cc.metrics.ObserveCallback(outcome.Kind)
	logger.Info("callback received", zap.String("outcome", string(outcome.Kind)))

	if err := renderPage(w, http.StatusOK, pageFor(outcome)); err != nil {
		logger.Error("failed to render callback page", zap.Error(err))
	}
}

// Classify turns the redirect query into an outcome. A state parameter that is
// absent is accepted unless strict is set.
func Classify(query url.Values, expected string, strict bool) models.CallbackOutcome {
	if query.Has("error") {
		description := unknownErrorText
		if _, ok := query["error_description"]; ok {
			description = query.Get("error_description")
		}
		return models.CallbackOutcome{
			Kind:        models.OutcomeProviderError,
			Error:       query.Get("error"),
			Description: description,
		}
	}

	code := query.Get("code")
	if code == "" {
		return models.CallbackOutcome{Kind: models.OutcomeMissingCode}
	}

	if query.Has("state") {
		if subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(expected)) != 1 {
			return models.CallbackOutcome{Kind: models.OutcomeStateMismatch}
		}
	} else if strict {
		return models.CallbackOutcome{Kind: models.OutcomeStateMismatch}
	}

	return models.CallbackOutcome{Kind: models.OutcomeCode, Code: code}
}

func pageFor(outcome models.CallbackOutcome) page {
	switch outcome.Kind {
	case models.OutcomeCode:
		return page{
			Title:   "Authorization Successful",
			Heading: "Authorization Successful!",
			Message: "You can close this window and return to the application.",
			Success: true,
		}
	case models.OutcomeProviderError:
		return page{
			Title:   "Authorization Failed",
			Heading: "Authorization Failed",
			Message: "The provider did not grant access. Return to the application to try again.",
			Detail:  outcome.Error + ": " + outcome.Description,
		}
	case models.OutcomeStateMismatch:
		return page{
			Title:   "Authorization Failed",
			Heading: "Authorization Failed",
			Message: "This sign-in request was not started by the application. Start a new sign-in from the application.",
		}
	default:
		return page{
			Title:   "Authorization Failed",
			Heading: "Authorization Failed",
			Message: "The provider did not return an authorization code. Return to the application to try again.",
		}
	}
}

package authenticator

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "invalid state parameter - possible CSRF attack", InvalidStateError().Error())
	assert.Equal(t, "authorization failed: access_denied - User denied", AuthorizationFailedError("access_denied", "User denied").Error())
	assert.Equal(t, "token exchange failed: failed to exchange code for token: invalid_grant", TokenExchangeError("invalid_grant", nil).Error())
	assert.Equal(t, "server error: callback receiver dropped", ServerError("callback receiver dropped", nil).Error())
	assert.Equal(t, "network error: dial: refused", NetworkError("dial", errors.New("refused")).Error())
}

func TestError_KindSurvivesWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("start flow: %w", NetworkError("token request failed", cause))

	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Kind(""), KindOf(cause))

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.Retryable())
	assert.False(t, InvalidStateError().Retryable())
}

func TestError_MarshalJSONKeepsVariant(t *testing.T) {
	data, err := json.Marshal(AuthorizationFailedError("access_denied", "User denied"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "authorization_failed", decoded["kind"])
	assert.Equal(t, "access_denied", decoded["error"])
	assert.Equal(t, "User denied", decoded["description"])
	assert.Equal(t, false, decoded["retryable"])
}

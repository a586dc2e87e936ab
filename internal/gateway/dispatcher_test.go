package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(zap.NewNop())
}

func TestDispatcher_Success(t *testing.T) {
	d := newTestDispatcher()
	d.Register("echo", "say", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		var payload map[string]string
		require.NoError(t, json.Unmarshal(data, &payload))
		return map[string]string{"heard": payload["msg"], "from": connID}, nil
	})

	resp := d.Dispatch(context.Background(), "conn-1", Request{
		Service:       "echo",
		Method:        "say",
		Data:          json.RawMessage(`{"msg":"hi"}`),
		CorrelationID: "corr-42",
	})

	assert.True(t, resp.Success)
	assert.Equal(t, "echo", resp.Service)
	assert.Equal(t, "say", resp.Method)
	assert.Equal(t, "corr-42", resp.CorrelationID)
	assert.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "hi", result["heard"])
	assert.Equal(t, "conn-1", result["from"])
}

func TestDispatcher_UnknownServiceAndMethod(t *testing.T) {
	d := newTestDispatcher()
	d.Register("known", "op", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		return nil, nil
	})

	resp := d.Dispatch(context.Background(), "conn-1", Request{Service: "nope", Method: "op"})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperror.KindValidation, resp.Error.Kind)

	resp = d.Dispatch(context.Background(), "conn-1", Request{Service: "known", Method: "nope"})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperror.KindValidation, resp.Error.Kind)
}

func TestDispatcher_DomainErrorPassthrough(t *testing.T) {
	d := newTestDispatcher()
	kinds := map[string]*apperror.Error{
		"not_found":   apperror.NotFound("round", "some-id"),
		"invalid":     apperror.InvalidInput("value %q rejected", "42"),
		"not_allowed": apperror.NotAllowed("wrong key"),
		"invite":      apperror.InvalidInviteCode(),
	}
	for method, domainErr := range kinds {
		err := domainErr
		d.Register("fail", method, func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
			return nil, err
		})
	}

	for method, want := range kinds {
		resp := d.Dispatch(context.Background(), "conn-1", Request{Service: "fail", Method: method})
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error, method)
		assert.Equal(t, want.Kind, resp.Error.Kind)
		assert.Equal(t, want.Message, resp.Error.Message)
	}
}

func TestDispatcher_UnexpectedErrorIsMasked(t *testing.T) {
	d := newTestDispatcher()
	d.Register("boom", "op", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		return nil, errors.New("pq: connection reset")
	})

	resp := d.Dispatch(context.Background(), "conn-1", Request{Service: "boom", Method: "op"})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperror.KindInternal, resp.Error.Kind)
	assert.NotContains(t, resp.Error.Message, "pq:", "internal detail must not leak")
}

func TestDispatcher_WrappedDomainErrorStillClassified(t *testing.T) {
	d := newTestDispatcher()
	d.Register("wrap", "op", func(ctx context.Context, connID string, data json.RawMessage) (any, error) {
		return nil, apperror.NotFound("participant", "conn-9")
	})

	resp := d.Dispatch(context.Background(), "conn-1", Request{Service: "wrap", Method: "op"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperror.KindNotFound, resp.Error.Kind)
}

func TestDispatcher_DuplicateRegistrationPanics(t *testing.T) {
	d := newTestDispatcher()
	handler := func(ctx context.Context, connID string, data json.RawMessage) (any, error) { return nil, nil }

	d.Register("svc", "op", handler)
	assert.Panics(t, func() {
		d.Register("svc", "op", handler)
	})
}

func TestResponseEnvelope_JSONShape(t *testing.T) {
	resp := Response{
		Success:       false,
		Service:       "round",
		Method:        "place_vote",
		Error:         apperror.InvalidInput("round closed"),
		CorrelationID: "c-1",
	}

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "round", decoded["service"])
	assert.Equal(t, "place_vote", decoded["method"])
	assert.Equal(t, "c-1", decoded["correlationId"])
	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "invalid_input", errObj["kind"])
}

package apierror_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		testFunc func(*testing.T)
	}{
		{
			name: "Error_Error",
			testFunc: func(t *testing.T) {
				t.Parallel()
				err := apierror.NewError("TestError", "test message")
				assert.Equal(t, "[TestError] test message", err.Error())
				assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
			},
		},
		{
			name: "WrapError_KeepsCodeAndStatus",
			testFunc: func(t *testing.T) {
				t.Parallel()
				raw := fmt.Errorf("dial tcp: refused")
				err := apierror.WrapError(apierror.ErrBackendFailure, "start failed", raw)
				assert.Equal(t, "BackendFailure", err.Code)
				assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
				assert.Equal(t, "[BackendFailure] start failed (RawError: dial tcp: refused)", err.Error())
				assert.Equal(t, raw, errors.Unwrap(err))
			},
		},
		{
			name: "Is_ComparesCode",
			testFunc: func(t *testing.T) {
				t.Parallel()
				err := apierror.WrapError(apierror.ErrResourceBusy, "vm-3 is resizing", nil)
				assert.True(t, errors.Is(err, apierror.ErrResourceBusy))
				assert.False(t, errors.Is(err, apierror.ErrOperationInProgress))
			},
		},
		{
			name: "As_FindsWrappedError",
			testFunc: func(t *testing.T) {
				t.Parallel()
				err := fmt.Errorf("dispatch: %w", apierror.ErrNotFound)
				got := apierror.As(err)
				require.NotNil(t, got)
				assert.Equal(t, "NotFound", got.Code)
				assert.Nil(t, apierror.As(fmt.Errorf("plain")))
			},
		},
		{
			name: "ErrorResponse_JSON",
			testFunc: func(t *testing.T) {
				t.Parallel()
				resp := apierror.NewErrorResponse("req-1", apierror.ErrValidationFailed)
				data, err := json.Marshal(resp)
				require.NoError(t, err)
				assert.JSONEq(t, `{"errors":[{"code":"ValidationFailed","message":"The request failed validation."}],"requestID":"req-1"}`, string(data))
				assert.Contains(t, resp.Error(), "RequestID: req-1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

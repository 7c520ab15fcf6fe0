package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"FinFetch/internal/provider"
)

func TestClassifyErrorStatusByKind(t *testing.T) {
	cases := []struct {
		kind   provider.Kind
		status int
	}{
		{provider.KindValidation, http.StatusBadRequest},
		{provider.KindAuthorization, http.StatusForbidden},
		{provider.KindNotFound, http.StatusNotFound},
		{provider.KindTimeout, http.StatusGatewayTimeout},
		{provider.KindConnectivity, http.StatusServiceUnavailable},
		{provider.KindRateLimited, http.StatusTooManyRequests},
		{provider.KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := provider.NewError(tc.kind, "boom")
			appErr := ClassifyError(err)
			require.Equal(t, tc.status, appErr.Status)
			require.Equal(t, string(tc.kind), appErr.Kind)
			require.Contains(t, appErr.Message, "boom")
		})
	}
}

func TestClassifyErrorPlainErrors(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, ClassifyError(errors.New("oops")).Status)
	require.Equal(t, http.StatusGatewayTimeout, ClassifyError(context.DeadlineExceeded).Status)
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/pkg/auth"
)

func respond(t *testing.T, err error) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(context.Background(), rec, err)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Invalid("bad"), http.StatusBadRequest},
		{fmt.Errorf("commit: %w", domain.ErrNegativeStock), http.StatusUnprocessableEntity},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrPermissionDenied, http.StatusForbidden},
		{domain.ErrConflict, http.StatusConflict},
		{domain.Remote("read item", errors.New("dial tcp: refused")), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestRespondError_ClientErrorsKeepDetail(t *testing.T) {
	code, resp := respond(t, domain.Invalid("quantity %q is not a whole number", "abc"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, `"abc"`)
}

func TestRespondError_ServerErrorsHideDetail(t *testing.T) {
	code, resp := respond(t, domain.Remote("update stock", errors.New("pq: password authentication failed")))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "Service temporarily unavailable", resp.Error)
	assert.NotContains(t, resp.Error, "pq:")

	code, resp = respond(t, errors.New("failed to hash password: bcrypt internals"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", resp.Error)
}

package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/identity-service/internal/autherr"
)

func TestToHTTP_BaseMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantMsg    string
	}{
		{"validation", autherr.Validation("Missing required field: email"), http.StatusBadRequest, "Validation failed"},
		{"invalid_credentials", fmt.Errorf("op: %w", autherr.ErrInvalidCredentials), http.StatusUnauthorized, "Invalid credentials"},
		{"invalid_token", autherr.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
		{"forbidden", autherr.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"not_found", autherr.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"conflict", autherr.ErrEmailTaken, http.StatusConflict, "Email already registered"},
		{"rate_limit", autherr.ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
		{"store", autherr.Store(stderrors.New("dial tcp: refused")), http.StatusInternalServerError, MsgInternal},
		{"foreign", stderrors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantMsg, resp.Error)
		})
	}
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, MsgInternal, resp.Error)
	require.Empty(t, resp.Details)
}

func TestWriteError_ValidationCarriesDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)

	WriteError(rr, req, autherr.Validation("Missing required field: email", "Missing required field: password"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Validation failed", body.Error)
	require.Equal(t, []string{"Missing required field: email", "Missing required field: password"}, body.Details)
}

func TestWriteError_InternalHidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	WriteError(rr, req, autherr.Store(stderrors.New("password=hunter2 in query")))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "hunter2")
	require.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}

func TestWriteError_AuthenticationHasNoDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)

	WriteError(rr, req, autherr.ErrInvalidCredentials)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.JSONEq(t, `{"error":"Invalid credentials"}`, rr.Body.String())
}

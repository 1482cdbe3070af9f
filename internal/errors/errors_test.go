package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "req-1", NotFound("Could not find contact", "Could not find contact with id 42"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{
		"success": false,
		"statusCode": 404,
		"errors": "Could not find contact",
		"data": {"message": "Could not find contact with id 42"}
	}`, rec.Body.String())
}

func TestWriteError_UnknownErrorDoesNotLeak(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "", fmt.Errorf("pq: password authentication failed for user %q", "admin"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.NotContains(t, rec.Body.String(), "admin")

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Errors)
	assert.Equal(t, "Internal Server Error", *env.Errors)
}

func TestWriteError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "", fmt.Errorf("handler: %w", InvalidCredentials()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, "", http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"statusCode":201,"errors":null,"data":{"message":"ok"}}`, rec.Body.String())
}

func TestWriteSuccess_NotModifiedHasNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, "", http.StatusNotModified, map[string]string{"message": "No changes detected."})

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := InternalError("Internal Server Error").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, IsClientError(err))
	assert.True(t, IsClientError(Forbidden("x", "y")))
	assert.False(t, IsClientError(cause))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "forged\nlevel=error")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "forged\nlevel=error", seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestResolveRequestID(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		keep     bool
	}{
		{"uuid", "0b9e5c3d-2f4a-4e8b-8c1d-7a6e5f4d3c21", true},
		{"token", "req_1.a-B", true},
		{"empty", "", false},
		{"spaces", "a b", false},
		{"control chars", "a\r\nb", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRequestID(tt.upstream)
			if tt.keep {
				assert.Equal(t, tt.upstream, got)
				return
			}
			assert.NotEqual(t, tt.upstream, got)
			assert.True(t, validRequestID(got))
		})
	}
}

func TestHandleFunc(t *testing.T) {
	h := HandleFunc(func(w http.ResponseWriter, r *http.Request) error {
		return Conflict("User already exists.", "taken")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

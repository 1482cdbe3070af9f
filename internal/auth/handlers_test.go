package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/contactbook/contactbook/internal/errors"
	"github.com/contactbook/contactbook/internal/memory"
)

func newTestHandlers() (*Handlers, *Service) {
	svc := NewService(ServiceConfig{
		Users:      memory.NewUserStore(),
		Tokens:     NewTokenService(testSecret, time.Hour),
		BcryptCost: bcrypt.MinCost,
	})
	return NewHandlers(svc), svc
}

func serve(h apperrors.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(h)(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterHandler(t *testing.T) {
	h, _ := newTestHandlers()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"created", `{"email":"ada@example.com","password":"pw"}`, http.StatusCreated},
		{"duplicate", `{"email":"ada@example.com","password":"pw"}`, http.StatusConflict},
		{"padded email", `{"email":" Pad@Example.com ","password":"pw"}`, http.StatusCreated},
		{"padded duplicate", `{"email":"  ADA@example.com","password":"pw"}`, http.StatusConflict},
		{"missing password", `{"email":"bob@example.com"}`, http.StatusBadRequest},
		{"invalid email", `{"email":"bob","password":"pw"}`, http.StatusBadRequest},
		{"malformed json", `{"email":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			rec := serve(h.Register, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, float64(tt.wantStatus), body["statusCode"])
			assert.Equal(t, tt.wantStatus < 400, body["success"])
		})
	}
}

func TestRegisterHandler_NeverReturnsHash(t *testing.T) {
	h, _ := newTestHandlers()

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"ada@example.com","password":"pw"}`))
	rec := serve(h.Register, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	body := decodeEnvelope(t, rec)
	assert.Nil(t, body["errors"])
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, true, user["isConfirmed"])
}

func TestLoginHandler(t *testing.T) {
	h, svc := newTestHandlers()
	_, err := svc.Register(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"pw"}`))
	rec := serve(h.Login, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "OK", data["message"])
	assert.NotEmpty(t, data["token"])

	req = httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
	rec = serve(h.Login, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid email or password.", body["errors"])
}

func TestMeHandler(t *testing.T) {
	h, svc := newTestHandlers()
	user, err := svc.Register(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(WithCaller(req.Context(), &CallerIdentity{UserID: user.ID, Email: user.Email}))
	rec := serve(h.Me, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeEnvelope(t, rec)["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, user.ID, got["id"])

	rec = serve(h.Me, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(WithCaller(req.Context(), &CallerIdentity{UserID: "removed", Email: "gone@example.com"}))
	rec = serve(h.Me, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("down") }

func TestDeepCheck(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   Status
	}{
		{"all healthy", []Check{{Name: "store", Probe: ok}, {Name: "redis", Probe: ok, Optional: true}}, StatusHealthy},
		{"optional down", []Check{{Name: "store", Probe: ok}, {Name: "redis", Probe: fail, Optional: true}}, StatusDegraded},
		{"store down", []Check{{Name: "store", Probe: fail}, {Name: "redis", Probe: ok, Optional: true}}, StatusUnhealthy},
		{"unconfigured", []Check{{Name: "store"}}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(&CheckerConfig{Checks: tt.checks, Version: "test"})
			resp := c.DeepCheck(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Components, len(tt.checks))
		})
	}
}

func TestDeepCheck_Timeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	c := NewChecker(&CheckerConfig{Checks: []Check{{Name: "store", Probe: slow}}, Timeout: 10 * time.Millisecond})

	resp := c.DeepCheck(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestHandlers(t *testing.T) {
	h := NewHandler(NewChecker(&CheckerConfig{Checks: []Check{{Name: "store", Probe: fail}}, Version: "v1"}))

	rec := httptest.NewRecorder()
	h.LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "v1", resp.Version)
	assert.Equal(t, StatusUnhealthy, resp.Components["store"].Status)

	rec = httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health?deep=true", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/turf-war/internal/config"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

func TestNew_MemoryStorageWithDemoSeed(t *testing.T) {
	t.Setenv("APP_ENV", config.EnvDev)
	t.Setenv("STORAGE_DRIVER", config.StorageMemory)
	t.Setenv("INTERNAL_JOB_TOKEN", "job-secret")
	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(t.Context(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Scheduler)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/war-tick", nil)
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"wars":1`)

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_SchedulerDisabled(t *testing.T) {
	t.Setenv("APP_ENV", config.EnvDev)
	t.Setenv("WAR_TICK_SCHEDULER_ENABLED", "false")
	t.Setenv("SEED_DEMO_DATA", "false")
	t.Setenv("METRICS_ENABLED", "false")
	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(t.Context(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a.Scheduler)
	assert.NoError(t, a.Close())

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	_, err := New(t.Context(), config.Config{}, logging.NewNop())
	require.Error(t, err)
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanRunner struct {
	log domain.ScanLog
	err error
}

func (f *fakeScanRunner) RunScan(_ context.Context) (domain.ScanLog, error) {
	return f.log, f.err
}

func TestHealthCheck(t *testing.T) {
	h := NewHandlers(eventbus.New(), &fakeScanRunner{})
	r := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestTriggerScan(t *testing.T) {
	runner := &fakeScanRunner{log: domain.ScanLog{ID: "scan-1", Status: domain.ScanCompleted}}
	h := NewHandlers(eventbus.New(), runner)
	r := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodPost, "/scans", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan-1")
}

func TestStreamPortal_RequiresEmail(t *testing.T) {
	h := NewHandlers(eventbus.New(), &fakeScanRunner{})
	r := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodGet, "/events/portal", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

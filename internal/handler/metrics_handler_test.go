package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordImport(3, 1, false)
	handler := NewMetricsHandler(metrics, nil)
	c, rec := testContext(http.MethodGet, "/metrics")

	handler.Prometheus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "students_imported_total")
}

func TestMetricsHandlerPrometheusDisabled(t *testing.T) {
	handler := NewMetricsHandler(nil, nil)
	c, rec := testContext(http.MethodGet, "/metrics")

	handler.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/students", http.StatusOK, 20*time.Millisecond)
	metrics.RecordImport(4, 0, false)
	handler := NewMetricsHandler(metrics, nil)
	c, rec := testContext(http.MethodGet, "/system/metrics")

	handler.Summary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(1), envelope.Data["requests_total"])
	assert.Equal(t, float64(4), envelope.Data["students_imported"])
}

func TestMetricsHandlerReadiness(t *testing.T) {
	c, rec := testContext(http.MethodGet, "/ready")
	NewMetricsHandler(nil, stubPinger{}).Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = testContext(http.MethodGet, "/ready")
	NewMetricsHandler(nil, stubPinger{err: errors.New("connection refused")}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	c, rec = testContext(http.MethodGet, "/health")
	NewMetricsHandler(nil, nil).Health(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/api/request"
	"github.com/edvin/saaslens/internal/model"
)

func TestMetricsGenerate(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("GenerateSnapshot", mock.Anything).Return(&analytics.Snapshot{
		MRR:             220,
		ChurnRate:       50,
		ActiveCustomers: 2,
		MRRTrend:        []analytics.MRRPoint{{Month: "Jun 2024", MRR: 220}},
	}, nil)

	rec := httptest.NewRecorder()
	NewMetrics(metrics).Generate(rec, newRequest(http.MethodPost, "/api/v1/metrics/generate", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"metrics":{"mrr":220,"churnRate":50,"activeCustomers":2,"mrrTrend":[{"month":"Jun 2024","mrr":220}]}}`, rec.Body.String())
}

func TestMetricsGenerate_Error(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("GenerateSnapshot", mock.Anything).Return(nil, errors.New("insert failed"))

	rec := httptest.NewRecorder()
	NewMetrics(metrics).Generate(rec, newRequest(http.MethodPost, "/api/v1/metrics/generate", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate metrics", decodeErrorResponse(rec)["error"])
}

func TestMetricsSnapshots(t *testing.T) {
	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	metrics := &mockMetrics{}
	metrics.On("History", mock.Anything, model.MetricMRR, 5).Return([]model.MetricSnapshot{
		{ID: "s1", Type: model.MetricMRR, Value: 220, Date: date, CreatedAt: date},
	}, nil)

	rec := httptest.NewRecorder()
	NewMetrics(metrics).Snapshots(rec, newRequest(http.MethodGet, "/api/v1/metrics/snapshots?type=mrr&limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"mrr"`)
	metrics.AssertExpectations(t)
}

func TestMetricsSnapshots_DefaultLimit(t *testing.T) {
	metrics := &mockMetrics{}
	metrics.On("History", mock.Anything, "", request.DefaultLimit).Return([]model.MetricSnapshot{}, nil)

	rec := httptest.NewRecorder()
	NewMetrics(metrics).Snapshots(rec, newRequest(http.MethodGet, "/api/v1/metrics/snapshots", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"snapshots":[]}`, rec.Body.String())
}

func TestMetricsSnapshots_UnknownType(t *testing.T) {
	metrics := &mockMetrics{}

	rec := httptest.NewRecorder()
	NewMetrics(metrics).Snapshots(rec, newRequest(http.MethodGet, "/api/v1/metrics/snapshots?type=ltv", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	metrics.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything)
}

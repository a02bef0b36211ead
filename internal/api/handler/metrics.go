package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/api/request"
	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/model"
)

// SnapshotStore generates and lists persisted metric snapshots.
type SnapshotStore interface {
	GenerateSnapshot(ctx context.Context) (*analytics.Snapshot, error)
	History(ctx context.Context, metricType string, limit int) ([]model.MetricSnapshot, error)
}

type Metrics struct {
	snapshots SnapshotStore
}

func NewMetrics(snapshots SnapshotStore) *Metrics {
	return &Metrics{snapshots: snapshots}
}

type generateResponse struct {
	Success bool                `json:"success"`
	Metrics *analytics.Snapshot `json:"metrics"`
}

func (h *Metrics) Generate(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.GenerateSnapshot(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("metric generation failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to generate metrics")
		return
	}
	response.WriteJSON(w, http.StatusOK, generateResponse{Success: true, Metrics: snap})
}

var snapshotTypes = map[string]bool{
	model.MetricMRR:             true,
	model.MetricChurnRate:       true,
	model.MetricActiveCustomers: true,
}

// Snapshots lists stored snapshots, newest first. ?type narrows to one metric.
func (h *Metrics) Snapshots(w http.ResponseWriter, r *http.Request) {
	metricType := r.URL.Query().Get("type")
	if metricType != "" && !snapshotTypes[metricType] {
		response.WriteError(w, http.StatusBadRequest, "unknown metric type: "+metricType)
		return
	}
	limit := request.DefaultLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, request.MaxLimit)
	}

	snaps, err := h.snapshots.History(r.Context(), metricType, limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("listing metric snapshots failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to load metric snapshots")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

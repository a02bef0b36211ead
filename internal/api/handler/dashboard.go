package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/cache"
)

// VisualizationsCacheKey holds the cached 12-month visualization payload.
// Handlers that change billing data delete it.
const VisualizationsCacheKey = "visualizations"

// DashboardReader computes the dashboard views.
type DashboardReader interface {
	Summary(ctx context.Context) (*analytics.DashboardSummary, error)
	Visualizations(ctx context.Context) (*analytics.Visualizations, error)
}

type Dashboard struct {
	metrics DashboardReader
	cache   cache.Store
	ttl     time.Duration
}

func NewDashboard(metrics DashboardReader, store cache.Store, ttl time.Duration) *Dashboard {
	return &Dashboard{metrics: metrics, cache: store, ttl: ttl}
}

func (h *Dashboard) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.metrics.Summary(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("dashboard summary failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard metrics")
		return
	}
	response.WriteJSON(w, http.StatusOK, summary)
}

func (h *Dashboard) Visualizations(w http.ResponseWriter, r *http.Request) {
	v, err := cache.GetOrLoad(r.Context(), h.cache, VisualizationsCacheKey, h.ttl,
		func(ctx context.Context) (*analytics.Visualizations, error) {
			return h.metrics.Visualizations(ctx)
		})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("visualizations failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to generate visualization data")
		return
	}
	response.WriteJSON(w, http.StatusOK, v)
}

// invalidate drops cached views after billing data changed. On failure the
// stale entry lives until its TTL.
func invalidate(ctx context.Context, store cache.Store) {
	if err := store.Delete(ctx, VisualizationsCacheKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("cache invalidation failed")
	}
}

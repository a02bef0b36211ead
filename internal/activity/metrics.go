package activity

import (
	"context"

	"github.com/edvin/saaslens/internal/analytics"
)

// SnapshotGenerator computes and persists the current metric snapshot.
type SnapshotGenerator interface {
	GenerateSnapshot(ctx context.Context) (*analytics.Snapshot, error)
}

// Metrics contains activities that maintain the metric history.
type Metrics struct {
	snapshots SnapshotGenerator
}

// NewMetrics creates a new Metrics activity struct.
func NewMetrics(snapshots SnapshotGenerator) *Metrics {
	return &Metrics{snapshots: snapshots}
}

// GenerateMetricSnapshot records today's snapshot. Snapshots already stored
// for the same day are kept.
func (a *Metrics) GenerateMetricSnapshot(ctx context.Context) (*analytics.Snapshot, error) {
	return a.snapshots.GenerateSnapshot(ctx)
}

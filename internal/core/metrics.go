package core

import (
	"context"
	"fmt"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/model"
)

// MetricsService computes dashboard metrics from the stored records.
type MetricsService struct {
	customers      *CustomerService
	products       *ProductService
	subscriptions  *SubscriptionService
	snapshots      *MetricSnapshotService
	clock          analytics.Clock
	lifetimeMonths int
}

func NewMetricsService(db DB, clock analytics.Clock, lifetimeMonths int) *MetricsService {
	return &MetricsService{
		customers:      NewCustomerService(db),
		products:       NewProductService(db),
		subscriptions:  NewSubscriptionService(db),
		snapshots:      NewMetricSnapshotService(db),
		clock:          clock,
		lifetimeMonths: lifetimeMonths,
	}
}

func (s *MetricsService) Summary(ctx context.Context) (*analytics.DashboardSummary, error) {
	subs, err := s.subscriptions.List(ctx, SubscriptionFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	total, err := s.customers.Count(ctx, CustomerFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	summary := analytics.Summarize(subs, total, s.lifetimeMonths, s.clock.Now())
	return &summary, nil
}

func (s *MetricsService) Visualizations(ctx context.Context) (*analytics.Visualizations, error) {
	subs, err := s.subscriptions.List(ctx, SubscriptionFilter{})
	if err != nil {
		return nil, fmt.Errorf("visualizations: %w", err)
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("visualizations: %w", err)
	}
	v := analytics.BuildVisualizations(subs, products, s.clock.Now())
	return &v, nil
}

// GenerateSnapshot computes the current snapshot and appends it to the metric
// history.
func (s *MetricsService) GenerateSnapshot(ctx context.Context) (*analytics.Snapshot, error) {
	subs, err := s.subscriptions.List(ctx, SubscriptionFilter{})
	if err != nil {
		return nil, fmt.Errorf("generate snapshot: %w", err)
	}
	now := s.clock.Now()
	snap := analytics.ComputeSnapshot(subs, now)
	if err := s.snapshots.CreateMany(ctx, snap.Records(now)); err != nil {
		return nil, fmt.Errorf("generate snapshot: %w", err)
	}
	return &snap, nil
}

func (s *MetricsService) History(ctx context.Context, metricType string, limit int) ([]model.MetricSnapshot, error) {
	return s.snapshots.List(ctx, metricType, limit)
}

package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/saaslens/internal/analytics"
)

func snapshotActivityCtx(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	})
}

// MetricSnapshotWorkflow records the daily metric snapshot. It runs on a cron
// schedule registered by the worker.
func MetricSnapshotWorkflow(ctx workflow.Context) (*analytics.Snapshot, error) {
	ctx = snapshotActivityCtx(ctx)

	var snap analytics.Snapshot
	if err := workflow.ExecuteActivity(ctx, "GenerateMetricSnapshot").Get(ctx, &snap); err != nil {
		return nil, err
	}
	workflow.GetLogger(ctx).Info("metric snapshot recorded",
		"mrr", snap.MRR, "churnRate", snap.ChurnRate, "activeCustomers", snap.ActiveCustomers)
	return &snap, nil
}

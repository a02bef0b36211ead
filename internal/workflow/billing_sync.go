package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/saaslens/internal/activity"
	"github.com/edvin/saaslens/internal/model"
)

func syncActivityCtx(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    5,
			InitialInterval:    5 * time.Second,
			MaximumInterval:    time.Minute,
			BackoffCoefficient: 2.0,
		},
	})
}

// SyncConnectionWorkflow copies a connected billing account into the record
// store. Customers are synced before subscriptions so every subscription can
// be attached to its owner, and a metric snapshot is recorded at the end.
func SyncConnectionWorkflow(ctx workflow.Context, req model.SyncRequest) (*model.SyncResult, error) {
	logger := workflow.GetLogger(ctx)
	ctx = syncActivityCtx(ctx)
	params := activity.SyncParams{AccountID: req.AccountID}

	scope := req.Scope
	if scope == "" {
		scope = model.SyncScopeAll
	}
	syncCustomers := scope == model.SyncScopeAll || scope == model.SyncScopeCustomers
	syncSubscriptions := scope == model.SyncScopeAll || scope == model.SyncScopeSubscriptions
	if !syncCustomers && !syncSubscriptions {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unknown sync scope %q", req.Scope), "INVALID_SCOPE", nil)
	}

	var result model.SyncResult
	if syncCustomers {
		if err := workflow.ExecuteActivity(ctx, "SyncCustomers", params).Get(ctx, &result.Customers); err != nil {
			return nil, fmt.Errorf("sync customers: %w", err)
		}
		logger.Info("customers synced", "account", req.AccountID, "count", result.Customers)
	}

	if syncSubscriptions {
		var subs activity.SubscriptionSyncResult
		if err := workflow.ExecuteActivity(ctx, "SyncSubscriptions", params).Get(ctx, &subs); err != nil {
			return nil, fmt.Errorf("sync subscriptions: %w", err)
		}
		result.Subscriptions = subs.Subscriptions
		logger.Info("subscriptions synced", "account", req.AccountID,
			"count", subs.Subscriptions, "skipped", subs.Skipped)
	}

	// The sync already succeeded; a failed snapshot is picked up by the next
	// scheduled run.
	if err := workflow.ExecuteActivity(snapshotActivityCtx(ctx), "GenerateMetricSnapshot").Get(ctx, nil); err != nil {
		logger.Warn("metric snapshot after sync failed", "account", req.AccountID, "error", err)
	}
	return &result, nil
}

package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/saaslens/internal/model"
	"github.com/edvin/saaslens/internal/platform"
)

const (
	TaskQueue = "saaslens-tasks"

	SyncWorkflowName     = "SyncConnectionWorkflow"
	SnapshotWorkflowName = "MetricSnapshotWorkflow"
)

func workflowID(prefix, id string) string {
	return fmt.Sprintf("%s-%s", prefix, id)
}

// SyncService starts billing sync workflows for connected accounts.
type SyncService struct {
	db DB
	tc temporalclient.Client
}

func NewSyncService(db DB, tc temporalclient.Client) *SyncService {
	return &SyncService{db: db, tc: tc}
}

// Start checks that the account is connected and starts a sync workflow for
// it. It returns the workflow id.
func (s *SyncService) Start(ctx context.Context, req model.SyncRequest) (string, error) {
	switch req.Scope {
	case "":
		req.Scope = model.SyncScopeAll
	case model.SyncScopeAll, model.SyncScopeCustomers, model.SyncScopeSubscriptions:
	default:
		return "", fmt.Errorf("unknown sync scope %q", req.Scope)
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stripe_connections WHERE stripe_account_id = $1)`, req.AccountID,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("look up connection %s: %w", req.AccountID, err)
	}
	if !exists {
		return "", fmt.Errorf("connection %s: %w", req.AccountID, ErrNotFound)
	}

	id := workflowID("stripe-sync", platform.NewRunSuffix(req.AccountID))
	_, err = s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        id,
		TaskQueue: TaskQueue,
	}, SyncWorkflowName, req)
	if err != nil {
		return "", fmt.Errorf("start sync workflow for %s: %w", req.AccountID, err)
	}
	return id, nil
}

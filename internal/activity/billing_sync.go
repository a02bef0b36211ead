package activity

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

// ConnectionReader loads a connected billing account with its decrypted tokens.
type ConnectionReader interface {
	GetByAccountID(ctx context.Context, accountID string) (*model.Connection, error)
}

// BillingSync contains activities that copy a connected billing account into
// the record store.
type BillingSync struct {
	connections ConnectionReader
	provider    billing.Provider
	ingest      *billing.Ingestor
	concurrency int
}

// NewBillingSync creates a BillingSync activity struct. concurrency bounds the
// number of records written in parallel per page.
func NewBillingSync(connections ConnectionReader, provider billing.Provider, ingest *billing.Ingestor, concurrency int) *BillingSync {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BillingSync{
		connections: connections,
		provider:    provider,
		ingest:      ingest,
		concurrency: concurrency,
	}
}

// SyncParams identifies the connected account to sync.
type SyncParams struct {
	AccountID string `json:"account_id"`
}

// SubscriptionSyncResult counts the subscriptions written and the ones skipped
// because their customer is unknown.
type SubscriptionSyncResult struct {
	Subscriptions int `json:"subscriptions"`
	Skipped       int `json:"skipped"`
}

func (a *BillingSync) accessToken(ctx context.Context, accountID string) (string, error) {
	conn, err := a.connections.GetByAccountID(ctx, accountID)
	if errors.Is(err, core.ErrNotFound) {
		return "", temporal.NewNonRetryableApplicationError("connection not found", "CONNECTION_NOT_FOUND", err)
	}
	if err != nil {
		return "", err
	}
	return conn.AccessToken, nil
}

// resumeToken returns the page token recorded by a previous attempt.
func resumeToken(ctx context.Context) string {
	var token string
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &token)
	}
	return token
}

// SyncCustomers upserts every customer of the account. Progress is
// heartbeated per page so a retried attempt resumes after the last full page.
func (a *BillingSync) SyncCustomers(ctx context.Context, params SyncParams) (int, error) {
	token, err := a.accessToken(ctx, params.AccountID)
	if err != nil {
		return 0, err
	}

	synced := 0
	pageToken := resumeToken(ctx)
	for {
		page, err := a.provider.ListCustomers(ctx, token, pageToken)
		if err != nil {
			return synced, err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.concurrency)
		for _, c := range page.Items {
			g.Go(func() error { return a.ingest.Customer(gctx, c) })
		}
		if err := g.Wait(); err != nil {
			return synced, fmt.Errorf("sync customers for %s: %w", params.AccountID, err)
		}
		synced += len(page.Items)

		if page.Done {
			return synced, nil
		}
		pageToken = page.NextPageToken
		activity.RecordHeartbeat(ctx, pageToken)
	}
}

// SyncSubscriptions upserts every subscription of the account together with
// its product. Customers must have been synced first.
func (a *BillingSync) SyncSubscriptions(ctx context.Context, params SyncParams) (SubscriptionSyncResult, error) {
	var res SubscriptionSyncResult
	token, err := a.accessToken(ctx, params.AccountID)
	if err != nil {
		return res, err
	}

	pageToken := resumeToken(ctx)
	for {
		page, err := a.provider.ListSubscriptions(ctx, token, pageToken)
		if err != nil {
			return res, err
		}

		applied := make([]bool, len(page.Items))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.concurrency)
		for i, s := range page.Items {
			g.Go(func() error {
				ok, err := a.ingest.Subscription(gctx, s)
				applied[i] = ok
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return res, fmt.Errorf("sync subscriptions for %s: %w", params.AccountID, err)
		}
		for _, ok := range applied {
			if ok {
				res.Subscriptions++
			} else {
				res.Skipped++
			}
		}

		if page.Done {
			return res, nil
		}
		pageToken = page.NextPageToken
		activity.RecordHeartbeat(ctx, pageToken)
	}
}

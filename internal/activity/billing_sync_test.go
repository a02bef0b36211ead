package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

type fakeConnections map[string]*model.Connection

func (f fakeConnections) GetByAccountID(_ context.Context, id string) (*model.Connection, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("connection %s: %w", id, core.ErrNotFound)
}

// pagedProvider serves fixed pages keyed by page token.
type pagedProvider struct {
	customers     map[string]billing.Page[billing.Customer]
	subscriptions map[string]billing.Page[billing.Subscription]

	mu     sync.Mutex
	tokens []string
}

func (p *pagedProvider) ListCustomers(_ context.Context, accessToken, pageToken string) (billing.Page[billing.Customer], error) {
	p.mu.Lock()
	p.tokens = append(p.tokens, accessToken+"/"+pageToken)
	p.mu.Unlock()
	page, ok := p.customers[pageToken]
	if !ok {
		return page, errors.New("unexpected page token " + pageToken)
	}
	return page, nil
}

func (p *pagedProvider) ListSubscriptions(_ context.Context, accessToken, pageToken string) (billing.Page[billing.Subscription], error) {
	p.mu.Lock()
	p.tokens = append(p.tokens, accessToken+"/"+pageToken)
	p.mu.Unlock()
	page, ok := p.subscriptions[pageToken]
	if !ok {
		return page, errors.New("unexpected page token " + pageToken)
	}
	return page, nil
}

// memoryStore is a concurrency-safe record store keyed the way the database is.
type memoryStore struct {
	mu            sync.Mutex
	customers     map[string]*model.Customer
	products      map[string]*model.Product
	subscriptions map[string]*model.Subscription
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		customers:     map[string]*model.Customer{},
		products:      map[string]*model.Product{},
		subscriptions: map[string]*model.Subscription{},
	}
}

type memoryCustomers struct{ *memoryStore }

func (m memoryCustomers) UpsertByStripeID(_ context.Context, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = "row-" + c.StripeID
	m.customers[c.StripeID] = c
	return nil
}

func (m memoryCustomers) GetByStripeID(_ context.Context, id string) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("get customer by stripe id %s: %w", id, core.ErrNotFound)
}

type memoryProducts struct{ *memoryStore }

func (m memoryProducts) UpsertByName(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = "row-" + p.Name
	m.products[p.Name] = p
	return nil
}

type memorySubscriptions struct{ *memoryStore }

func (m memorySubscriptions) UpsertByStripeID(_ context.Context, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[s.StripeID] = s
	return nil
}

func newBillingSyncEnv(t *testing.T, provider *pagedProvider) (*testsuite.TestActivityEnvironment, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	ingest := billing.NewIngestor(memoryCustomers{store}, memoryProducts{store}, memorySubscriptions{store})
	a := NewBillingSync(fakeConnections{
		"acct_1": {StripeAccountID: "acct_1", AccessToken: "sk_acct"},
	}, provider, ingest, 4)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(a)
	return env, store
}

func customerPage(next string, ids ...string) billing.Page[billing.Customer] {
	page := billing.Page[billing.Customer]{NextPageToken: next, Done: next == ""}
	for _, id := range ids {
		page.Items = append(page.Items, billing.Customer{StripeID: id, Email: id + "@example.com"})
	}
	return page
}

func TestSyncCustomers_Paginates(t *testing.T) {
	provider := &pagedProvider{customers: map[string]billing.Page[billing.Customer]{
		"":      customerPage("cus_2", "cus_1", "cus_2"),
		"cus_2": customerPage("", "cus_3"),
	}}
	env, store := newBillingSyncEnv(t, provider)

	val, err := env.ExecuteActivity("SyncCustomers", SyncParams{AccountID: "acct_1"})
	require.NoError(t, err)
	var n int
	require.NoError(t, val.Get(&n))

	assert.Equal(t, 3, n)
	assert.Len(t, store.customers, 3)
	assert.Equal(t, []string{"sk_acct/", "sk_acct/cus_2"}, provider.tokens)
}

func TestSyncCustomers_ResumesFromHeartbeat(t *testing.T) {
	provider := &pagedProvider{customers: map[string]billing.Page[billing.Customer]{
		"cus_2": customerPage("", "cus_3"),
	}}
	env, store := newBillingSyncEnv(t, provider)
	env.SetHeartbeatDetails("cus_2")

	val, err := env.ExecuteActivity("SyncCustomers", SyncParams{AccountID: "acct_1"})
	require.NoError(t, err)
	var n int
	require.NoError(t, val.Get(&n))

	assert.Equal(t, 1, n)
	assert.Contains(t, store.customers, "cus_3")
}

func TestSyncCustomers_UnknownConnectionIsNonRetryable(t *testing.T) {
	env, _ := newBillingSyncEnv(t, &pagedProvider{})

	_, err := env.ExecuteActivity("SyncCustomers", SyncParams{AccountID: "acct_missing"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, "CONNECTION_NOT_FOUND", appErr.Type())
}

func TestSyncSubscriptions_SkipsUnknownCustomers(t *testing.T) {
	provider := &pagedProvider{
		customers: map[string]billing.Page[billing.Customer]{"": customerPage("", "cus_1")},
		subscriptions: map[string]billing.Page[billing.Subscription]{"": {
			Done: true,
			Items: []billing.Subscription{
				{StripeID: "sub_1", CustomerStripeID: "cus_1", Status: "active", Amount: 20, ProductName: "Plus"},
				{StripeID: "sub_2", CustomerStripeID: "cus_1", Status: "canceled", Amount: 200, ProductName: "Pro"},
				{StripeID: "sub_3", CustomerStripeID: "cus_unknown", Status: "active", Amount: 20, ProductName: "Plus"},
			},
		}},
	}
	env, store := newBillingSyncEnv(t, provider)

	_, err := env.ExecuteActivity("SyncCustomers", SyncParams{AccountID: "acct_1"})
	require.NoError(t, err)
	val, err := env.ExecuteActivity("SyncSubscriptions", SyncParams{AccountID: "acct_1"})
	require.NoError(t, err)

	var res SubscriptionSyncResult
	require.NoError(t, val.Get(&res))
	assert.Equal(t, SubscriptionSyncResult{Subscriptions: 2, Skipped: 1}, res)
	assert.Len(t, store.products, 2)
	assert.Equal(t, "row-cus_1", store.subscriptions["sub_1"].CustomerID)
	assert.Equal(t, "row-Pro", store.subscriptions["sub_2"].ProductID)
}

func TestSyncSubscriptions_ProviderError(t *testing.T) {
	env, _ := newBillingSyncEnv(t, &pagedProvider{})

	_, err := env.ExecuteActivity("SyncSubscriptions", SyncParams{AccountID: "acct_1"})
	assert.ErrorContains(t, err, "unexpected page token")
}

package handler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/assistant"
	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/cache"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

type mockAsker struct {
	mock.Mock
	// events are sent on the progress channel before Ask returns.
	events []assistant.Event
}

func (m *mockAsker) Ask(ctx context.Context, question string, progress chan<- assistant.Event) (string, error) {
	for _, e := range m.events {
		progress <- e
	}
	args := m.Called(ctx, question, progress)
	return args.String(0), args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) Summary(ctx context.Context) (*analytics.DashboardSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.DashboardSummary), args.Error(1)
}

func (m *mockMetrics) Visualizations(ctx context.Context) (*analytics.Visualizations, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Visualizations), args.Error(1)
}

func (m *mockMetrics) GenerateSnapshot(ctx context.Context) (*analytics.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Snapshot), args.Error(1)
}

func (m *mockMetrics) History(ctx context.Context, metricType string, limit int) ([]model.MetricSnapshot, error) {
	args := m.Called(ctx, metricType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MetricSnapshot), args.Error(1)
}

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) List(ctx context.Context, f core.CustomerFilter, opts core.ListOptions) ([]model.Customer, bool, error) {
	args := m.Called(ctx, f, opts)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.Customer), args.Bool(1), args.Error(2)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) Stats(ctx context.Context) ([]core.ProductStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.ProductStats), args.Error(1)
}

type mockSeeder struct {
	mock.Mock
}

func (m *mockSeeder) Seed(ctx context.Context, rng *rand.Rand) (*core.SeedResult, error) {
	args := m.Called(ctx, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.SeedResult), args.Error(1)
}

type mockOAuth struct {
	mock.Mock
}

func (m *mockOAuth) ClientID() string {
	return m.Called().String(0)
}

func (m *mockOAuth) AuthorizeURL(state, redirectURI string) (string, error) {
	args := m.Called(state, redirectURI)
	return args.String(0), args.Error(1)
}

func (m *mockOAuth) Exchange(ctx context.Context, code string) (*model.Connection, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Connection), args.Error(1)
}

type mockConnections struct {
	mock.Mock
}

func (m *mockConnections) Upsert(ctx context.Context, conn *model.Connection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *mockConnections) List(ctx context.Context) ([]model.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Connection), args.Error(1)
}

type mockSync struct {
	mock.Mock
}

func (m *mockSync) Start(ctx context.Context, req model.SyncRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockApplier struct {
	mock.Mock
}

func (m *mockApplier) Apply(ctx context.Context, ev *billing.Event) error {
	return m.Called(ctx, ev).Error(0)
}

// memoryCache is a cache.Store over a map.
type memoryCache struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

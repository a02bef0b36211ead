package assistant

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/llm"
	"github.com/edvin/saaslens/internal/model"
)

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) Count(ctx context.Context, f core.CustomerFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *mockCustomers) List(ctx context.Context, f core.CustomerFilter, opts core.ListOptions) ([]model.Customer, bool, error) {
	args := m.Called(ctx, f, opts)
	customers, _ := args.Get(0).([]model.Customer)
	return customers, args.Bool(1), args.Error(2)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) Stats(ctx context.Context) ([]core.ProductStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).([]core.ProductStats)
	return stats, args.Error(1)
}

type mockSubscriptions struct {
	mock.Mock
}

func (m *mockSubscriptions) List(ctx context.Context, f core.SubscriptionFilter) ([]model.Subscription, error) {
	args := m.Called(ctx, f)
	subs, _ := args.Get(0).([]model.Subscription)
	return subs, args.Error(1)
}

func (m *mockSubscriptions) SumAmount(ctx context.Context, f core.SubscriptionFilter) (float64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(float64), args.Error(1)
}

// scriptedChat answers chat requests from a fixed list of replies and records
// every request it receives.
type scriptedChat struct {
	mu       sync.Mutex
	replies  []scriptedReply
	requests []llm.ChatRequest
}

type scriptedReply struct {
	msg *llm.Message
	err error
	// wait blocks the reply until the request context is done.
	wait bool
}

func (s *scriptedChat) Chat(ctx context.Context, req llm.ChatRequest) (*llm.Message, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		s.mu.Unlock()
		return &llm.Message{Role: llm.RoleAssistant}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	s.mu.Unlock()

	if r.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.msg, r.err
}

// Package billing talks to the billing provider: it pages through connected
// accounts, runs the Connect OAuth flow, verifies webhooks and writes provider
// records into the record store.
package billing

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when the provider credentials needed for an
// operation are missing.
var ErrNotConfigured = errors.New("billing provider not configured")

// Customer is a provider customer in store-ready form.
type Customer struct {
	StripeID string
	Email    string
	Name     *string
}

// Subscription is a provider subscription in store-ready form. Amounts are in
// major currency units.
type Subscription struct {
	StripeID         string
	CustomerStripeID string
	Status           string
	Amount           float64
	ProductStripeID  string
	ProductName      string
	StartDate        time.Time
	EndDate          *time.Time
	CanceledAt       *time.Time
}

// Page is one page of a provider listing. NextPageToken resumes the listing
// and is empty when Done is set.
type Page[T any] struct {
	Items         []T
	NextPageToken string
	Done          bool
}

// Provider lists records of a connected account, authenticating with the
// account's access token.
type Provider interface {
	ListCustomers(ctx context.Context, accessToken, pageToken string) (Page[Customer], error)
	ListSubscriptions(ctx context.Context, accessToken, pageToken string) (Page[Subscription], error)
}

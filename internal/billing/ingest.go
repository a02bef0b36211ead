package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

type CustomerWriter interface {
	UpsertByStripeID(ctx context.Context, c *model.Customer) error
	GetByStripeID(ctx context.Context, stripeID string) (*model.Customer, error)
}

type ProductWriter interface {
	UpsertByName(ctx context.Context, p *model.Product) error
}

type SubscriptionWriter interface {
	UpsertByStripeID(ctx context.Context, s *model.Subscription) error
}

// Ingestor writes provider records into the record store. Customers are keyed
// by provider id, products by name and subscriptions by provider id.
type Ingestor struct {
	customers     CustomerWriter
	products      ProductWriter
	subscriptions SubscriptionWriter
}

func NewIngestor(customers CustomerWriter, products ProductWriter, subscriptions SubscriptionWriter) *Ingestor {
	return &Ingestor{customers: customers, products: products, subscriptions: subscriptions}
}

func (in *Ingestor) Customer(ctx context.Context, c Customer) error {
	err := in.customers.UpsertByStripeID(ctx, &model.Customer{
		StripeID: c.StripeID,
		Email:    c.Email,
		Name:     c.Name,
	})
	if err == nil {
		recordsIngested.WithLabelValues("customer").Inc()
	}
	return err
}

// Subscription upserts the subscription's product and then the subscription.
// It reports false without error when the owning customer has not been
// ingested yet.
func (in *Ingestor) Subscription(ctx context.Context, s Subscription) (bool, error) {
	customer, err := in.customers.GetByStripeID(ctx, s.CustomerStripeID)
	if errors.Is(err, core.ErrNotFound) {
		zerolog.Ctx(ctx).Warn().
			Str("subscription", s.StripeID).
			Str("customer", s.CustomerStripeID).
			Msg("customer not found for subscription, skipping")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up customer for subscription %s: %w", s.StripeID, err)
	}

	product := &model.Product{Name: s.ProductName, Price: s.Amount}
	if s.ProductStripeID != "" {
		id := s.ProductStripeID
		product.StripeID = &id
	}
	if err := in.products.UpsertByName(ctx, product); err != nil {
		return false, err
	}

	err = in.subscriptions.UpsertByStripeID(ctx, &model.Subscription{
		StripeID:   s.StripeID,
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Status:     s.Status,
		Amount:     s.Amount,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
		CanceledAt: s.CanceledAt,
	})
	if err != nil {
		return false, err
	}
	recordsIngested.WithLabelValues("subscription").Inc()
	return true, nil
}

// Apply ingests the record carried by a webhook event. Events without a
// record are ignored.
func (in *Ingestor) Apply(ctx context.Context, ev *Event) error {
	switch {
	case ev.Customer != nil:
		return in.Customer(ctx, *ev.Customer)
	case ev.Subscription != nil:
		_, err := in.Subscription(ctx, *ev.Subscription)
		return err
	}
	zerolog.Ctx(ctx).Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("webhook event ignored")
	return nil
}

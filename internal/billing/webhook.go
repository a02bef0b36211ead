package billing

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Webhook event types that change the record store.
const (
	EventCustomerCreated     = "customer.created"
	EventCustomerUpdated     = "customer.updated"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a verified webhook event. At most one of Customer and Subscription
// is set; both are nil for event types that are not ingested.
type Event struct {
	ID           string
	Type         string
	Customer     *Customer
	Subscription *Subscription
}

// ParseEvent verifies the Stripe-Signature header against secret and decodes
// the event payload.
func ParseEvent(payload []byte, signature, secret string) (*Event, error) {
	if secret == "" {
		return nil, fmt.Errorf("stripe webhook secret: %w", ErrNotConfigured)
	}
	raw, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify stripe webhook: %w", err)
	}

	ev := &Event{ID: raw.ID, Type: string(raw.Type)}
	switch ev.Type {
	case EventCustomerCreated, EventCustomerUpdated:
		var c stripe.Customer
		if err := json.Unmarshal(raw.Data.Raw, &c); err != nil {
			return nil, fmt.Errorf("decode customer: %w", err)
		}
		customer := customerFrom(&c)
		ev.Customer = &customer

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var s stripe.Subscription
		if err := json.Unmarshal(raw.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		if sub, ok := subscriptionFrom(&s); ok {
			ev.Subscription = &sub
		}
	}
	return ev, nil
}

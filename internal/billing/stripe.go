package billing

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const defaultPageSize = 100

// unknownEmail stands in for customers created without an email address.
const unknownEmail = "unknown@example.com"

// StripeClient lists Stripe records one page at a time.
type StripeClient struct {
	backends *stripe.Backends
	pageSize int64
}

type StripeOption func(*StripeClient)

// WithBackends points the client at custom API backends.
func WithBackends(b *stripe.Backends) StripeOption {
	return func(c *StripeClient) { c.backends = b }
}

// WithPageSize sets the number of records fetched per page.
func WithPageSize(n int64) StripeOption {
	return func(c *StripeClient) { c.pageSize = n }
}

func NewStripeClient(opts ...StripeOption) *StripeClient {
	c := &StripeClient{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *StripeClient) api(accessToken string) (*client.API, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("stripe access token: %w", ErrNotConfigured)
	}
	return client.New(accessToken, c.backends), nil
}

func (c *StripeClient) listParams(ctx context.Context, pageToken string) stripe.ListParams {
	p := stripe.ListParams{
		Context: ctx,
		Limit:   stripe.Int64(c.pageSize),
		Single:  true,
	}
	if pageToken != "" {
		p.StartingAfter = stripe.String(pageToken)
	}
	return p
}

func (c *StripeClient) ListCustomers(ctx context.Context, accessToken, pageToken string) (Page[Customer], error) {
	sc, err := c.api(accessToken)
	if err != nil {
		return Page[Customer]{}, err
	}

	params := &stripe.CustomerListParams{ListParams: c.listParams(ctx, pageToken)}
	it := sc.Customers.List(params)

	var page Page[Customer]
	for it.Next() {
		page.Items = append(page.Items, customerFrom(it.Customer()))
	}
	if err := it.Err(); err != nil {
		return Page[Customer]{}, fmt.Errorf("list stripe customers: %w", err)
	}
	page.Done = !hasMore(it.Meta()) || len(page.Items) == 0
	if !page.Done {
		page.NextPageToken = page.Items[len(page.Items)-1].StripeID
	}
	return page, nil
}

func (c *StripeClient) ListSubscriptions(ctx context.Context, accessToken, pageToken string) (Page[Subscription], error) {
	sc, err := c.api(accessToken)
	if err != nil {
		return Page[Subscription]{}, err
	}

	params := &stripe.SubscriptionListParams{
		ListParams: c.listParams(ctx, pageToken),
		Status:     stripe.String("all"),
	}
	params.AddExpand("data.items.data.price.product")
	it := sc.Subscriptions.List(params)

	var page Page[Subscription]
	var lastID string
	for it.Next() {
		s := it.Subscription()
		lastID = s.ID
		if sub, ok := subscriptionFrom(s); ok {
			page.Items = append(page.Items, sub)
		}
	}
	if err := it.Err(); err != nil {
		return Page[Subscription]{}, fmt.Errorf("list stripe subscriptions: %w", err)
	}
	page.Done = !hasMore(it.Meta()) || lastID == ""
	if !page.Done {
		page.NextPageToken = lastID
	}
	return page, nil
}

func hasMore(meta *stripe.ListMeta) bool {
	return meta != nil && meta.HasMore
}

func customerFrom(c *stripe.Customer) Customer {
	out := Customer{StripeID: c.ID, Email: c.Email}
	if out.Email == "" {
		out.Email = unknownEmail
	}
	if c.Name != "" {
		name := c.Name
		out.Name = &name
	}
	return out
}

// subscriptionFrom converts a Stripe subscription priced by its first item.
// Subscriptions without a priced item are reported as not ok.
func subscriptionFrom(s *stripe.Subscription) (Subscription, bool) {
	if s.Customer == nil || s.Items == nil || len(s.Items.Data) == 0 {
		return Subscription{}, false
	}
	price := s.Items.Data[0].Price
	if price == nil || price.Product == nil {
		return Subscription{}, false
	}

	out := Subscription{
		StripeID:         s.ID,
		CustomerStripeID: s.Customer.ID,
		Status:           string(s.Status),
		Amount:           float64(price.UnitAmount) / 100,
		ProductStripeID:  price.Product.ID,
		ProductName:      price.Product.Name,
		StartDate:        unixTime(s.StartDate),
		EndDate:          optionalUnixTime(s.EndedAt),
		CanceledAt:       optionalUnixTime(s.CanceledAt),
	}
	if out.ProductName == "" {
		out.ProductName = out.ProductStripeID
	}
	return out, true
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func optionalUnixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := unixTime(sec)
	return &t
}

package core

import (
	"context"
	"fmt"

	"github.com/edvin/saaslens/internal/model"
	"github.com/edvin/saaslens/internal/platform"
)

const subscriptionSelect = `SELECT s.id, s.stripe_id, s.customer_id, s.product_id, s.status, s.amount,
       s.start_date, s.end_date, s.canceled_at, s.created_at, s.updated_at,
       p.id, p.stripe_id, p.name, p.price, p.created_at, p.updated_at, c.email
FROM subscriptions s
JOIN products p ON p.id = s.product_id
JOIN customers c ON c.id = s.customer_id`

const subscriptionFrom = ` FROM subscriptions s JOIN products p ON p.id = s.product_id`

type SubscriptionService struct {
	db DB
}

func NewSubscriptionService(db DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// List returns matching subscriptions with their products, ordered by start date.
func (s *SubscriptionService) List(ctx context.Context, f SubscriptionFilter) ([]model.Subscription, error) {
	return listSubscriptions(ctx, s.db, f)
}

func listSubscriptions(ctx context.Context, db DB, f SubscriptionFilter) ([]model.Subscription, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	b := &queryBuilder{}
	f.apply(b)

	rows, err := db.Query(ctx, subscriptionSelect+b.where()+` ORDER BY s.start_date, s.id`, b.args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscription{}
	for rows.Next() {
		var sub model.Subscription
		p := &model.Product{}
		if err := rows.Scan(
			&sub.ID, &sub.StripeID, &sub.CustomerID, &sub.ProductID, &sub.Status, &sub.Amount,
			&sub.StartDate, &sub.EndDate, &sub.CanceledAt, &sub.CreatedAt, &sub.UpdatedAt,
			&p.ID, &p.StripeID, &p.Name, &p.Price, &p.CreatedAt, &p.UpdatedAt, &sub.CustomerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Product = p
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

func (s *SubscriptionService) Count(ctx context.Context, f SubscriptionFilter) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	b := &queryBuilder{}
	f.apply(b)

	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*)`+subscriptionFrom+b.where(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

// SumAmount totals the monthly amount of matching subscriptions.
func (s *SubscriptionService) SumAmount(ctx context.Context, f SubscriptionFilter) (float64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	b := &queryBuilder{}
	f.apply(b)

	var total float64
	if err := s.db.QueryRow(ctx, `SELECT COALESCE(sum(s.amount), 0)`+subscriptionFrom+b.where(), b.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum subscription amount: %w", err)
	}
	return total, nil
}

// UpsertByStripeID creates the subscription or overwrites the mutable fields of
// the existing one with the same billing id. sub.ID is set to the stored id.
func (s *SubscriptionService) UpsertByStripeID(ctx context.Context, sub *model.Subscription) error {
	if sub.EndDate != nil && sub.EndDate.Before(sub.StartDate) {
		return fmt.Errorf("upsert subscription %s: end date before start date", sub.StripeID)
	}
	if sub.ID == "" {
		sub.ID = platform.NewID()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO subscriptions (id, stripe_id, customer_id, product_id, status, amount,
		                            start_date, end_date, canceled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		 ON CONFLICT (stripe_id) DO UPDATE
		 SET product_id = EXCLUDED.product_id,
		     status = EXCLUDED.status,
		     amount = EXCLUDED.amount,
		     start_date = EXCLUDED.start_date,
		     end_date = EXCLUDED.end_date,
		     canceled_at = EXCLUDED.canceled_at,
		     updated_at = now()
		 RETURNING id, created_at, updated_at`,
		sub.ID, sub.StripeID, sub.CustomerID, sub.ProductID, sub.Status, sub.Amount,
		sub.StartDate, sub.EndDate, sub.CanceledAt,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.StripeID, err)
	}
	return nil
}

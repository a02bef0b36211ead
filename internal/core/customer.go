package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/saaslens/internal/model"
	"github.com/edvin/saaslens/internal/platform"
)

const customerColumns = `c.id, c.stripe_id, c.email, c.name, c.created_at, c.updated_at`

type CustomerService struct {
	db DB
}

func NewCustomerService(db DB) *CustomerService {
	return &CustomerService{db: db}
}

func scanCustomer(row pgx.Row, c *model.Customer) error {
	return row.Scan(&c.ID, &c.StripeID, &c.Email, &c.Name, &c.CreatedAt, &c.UpdatedAt)
}

func (s *CustomerService) Count(ctx context.Context, f CustomerFilter) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	b := &queryBuilder{}
	f.apply(b)

	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM customers c`+b.where(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// List returns customers ordered by id. hasMore reports whether another page
// exists after the returned one.
func (s *CustomerService) List(ctx context.Context, f CustomerFilter, opts ListOptions) ([]model.Customer, bool, error) {
	if err := f.Validate(); err != nil {
		return nil, false, err
	}
	b := &queryBuilder{}
	f.apply(b)
	if opts.Cursor != "" {
		b.add("c.id > " + b.arg(opts.Cursor))
	}

	query := `SELECT ` + customerColumns + ` FROM customers c` + b.where() + ` ORDER BY c.id`
	if opts.Limit > 0 {
		query += ` LIMIT ` + b.arg(opts.Limit+1)
	}

	rows, err := s.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, false, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, false, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate customers: %w", err)
	}

	hasMore := opts.Limit > 0 && len(customers) > opts.Limit
	if hasMore {
		customers = customers[:opts.Limit]
	}

	if opts.IncludeSubscriptions && len(customers) > 0 {
		if err := s.attachSubscriptions(ctx, customers); err != nil {
			return nil, false, err
		}
	}
	return customers, hasMore, nil
}

func (s *CustomerService) attachSubscriptions(ctx context.Context, customers []model.Customer) error {
	ids := make([]string, len(customers))
	index := make(map[string]int, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
		index[c.ID] = i
	}

	subs, err := listSubscriptions(ctx, s.db, SubscriptionFilter{CustomerIDs: ids})
	if err != nil {
		return fmt.Errorf("load customer subscriptions: %w", err)
	}
	for _, sub := range subs {
		i := index[sub.CustomerID]
		customers[i].Subscriptions = append(customers[i].Subscriptions, sub)
	}
	return nil
}

func (s *CustomerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := scanCustomer(s.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.id = $1`, id), &c)
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, notFound(err))
	}
	return &c, nil
}

// UpsertByStripeID creates the customer or overwrites email and name of the
// existing record with the same billing id. c.ID is set to the stored id.
func (s *CustomerService) UpsertByStripeID(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = platform.NewID()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO customers (id, stripe_id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (stripe_id) DO UPDATE
		 SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = now()
		 RETURNING id, created_at, updated_at`,
		c.ID, c.StripeID, c.Email, c.Name,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert customer %s: %w", c.StripeID, err)
	}
	return nil
}

func (s *CustomerService) GetByStripeID(ctx context.Context, stripeID string) (*model.Customer, error) {
	var c model.Customer
	err := scanCustomer(s.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.stripe_id = $1`, stripeID), &c)
	if err != nil {
		return nil, fmt.Errorf("get customer by stripe id %s: %w", stripeID, notFound(err))
	}
	return &c, nil
}

package core

import (
	"context"
	"fmt"

	"github.com/edvin/saaslens/internal/model"
	"github.com/edvin/saaslens/internal/platform"
)

type ProductService struct {
	db DB
}

func NewProductService(db DB) *ProductService {
	return &ProductService{db: db}
}

// ProductStats is one product with its subscription counts. MRR and
// ActiveSubscriptions cover active and trialing subscriptions.
type ProductStats struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Price               float64 `json:"price"`
	TotalSubscriptions  int     `json:"totalSubscriptions"`
	ActiveSubscriptions int     `json:"activeSubscriptions"`
	MRR                 float64 `json:"mrr"`
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, stripe_id, name, price, created_at, updated_at FROM products ORDER BY price, name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.StripeID, &p.Name, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Stats(ctx context.Context) ([]ProductStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, p.price,
		       count(s.id),
		       count(s.id) FILTER (WHERE s.status IN ('active', 'trialing')),
		       COALESCE(sum(s.amount) FILTER (WHERE s.status IN ('active', 'trialing')), 0)
		FROM products p
		LEFT JOIN subscriptions s ON s.product_id = p.id
		GROUP BY p.id, p.name, p.price
		ORDER BY p.name, p.id`)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	defer rows.Close()

	stats := []ProductStats{}
	for rows.Next() {
		var ps ProductStats
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Price, &ps.TotalSubscriptions, &ps.ActiveSubscriptions, &ps.MRR); err != nil {
			return nil, fmt.Errorf("scan product stats: %w", err)
		}
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product stats: %w", err)
	}
	return stats, nil
}

// UpsertByName creates the product or updates the price of the existing
// product with the same name. p.ID is set to the stored id.
func (s *ProductService) UpsertByName(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = platform.NewID()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO products (id, stripe_id, name, price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (name) DO UPDATE
		 SET price = EXCLUDED.price,
		     stripe_id = COALESCE(EXCLUDED.stripe_id, products.stripe_id),
		     updated_at = now()
		 RETURNING id, created_at, updated_at`,
		p.ID, p.StripeID, p.Name, p.Price,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.Name, err)
	}
	return nil
}

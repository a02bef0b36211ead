package model

import "time"

// Product is a pricing tier. Price is the monthly list price in major currency units.
type Product struct {
	ID        string    `json:"id" db:"id"`
	StripeID  *string   `json:"stripe_id,omitempty" db:"stripe_id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package model

import "time"

type Customer struct {
	ID        string    `json:"id" db:"id"`
	StripeID  string    `json:"stripe_id" db:"stripe_id"`
	Email     string    `json:"email" db:"email"`
	Name      *string   `json:"name,omitempty" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Populated when the store is asked to include subscriptions.
	Subscriptions []Subscription `json:"subscriptions,omitempty" db:"-"`
}

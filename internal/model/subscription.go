package model

import "time"

// Subscription is one billing period of a customer on a product. Plan changes
// produce a new Subscription; ordering a customer's subscriptions by StartDate
// reconstructs the plan history.
type Subscription struct {
	ID         string     `json:"id" db:"id"`
	StripeID   string     `json:"stripe_id" db:"stripe_id"`
	CustomerID string     `json:"customer_id" db:"customer_id"`
	ProductID  string     `json:"product_id" db:"product_id"`
	Status     string     `json:"status" db:"status"`
	Amount     float64    `json:"amount" db:"amount"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
	CanceledAt *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`

	// Joined fields, populated by store queries that include relations.
	Product       *Product `json:"product,omitempty" db:"-"`
	CustomerEmail string   `json:"customer_email,omitempty" db:"-"`
}

// ActiveAt reports whether the subscription was running at instant t. A
// canceled subscription keeps running until its EndDate.
func (s Subscription) ActiveAt(t time.Time) bool {
	if s.StartDate.After(t) {
		return false
	}
	return s.EndDate == nil || s.EndDate.After(t)
}

// ProductName returns the joined product name, or "" when the product was not loaded.
func (s Subscription) ProductName() string {
	if s.Product == nil {
		return ""
	}
	return s.Product.Name
}

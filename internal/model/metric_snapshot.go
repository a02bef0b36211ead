package model

import "time"

// Metric snapshot types.
const (
	MetricMRR             = "mrr"
	MetricChurnRate       = "churn_rate"
	MetricActiveCustomers = "active_customers"
)

// MetricSnapshot is a point-in-time record of a computed metric. It is an
// audit trail only; metrics are always recomputed from subscriptions.
type MetricSnapshot struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`
	Value     float64   `json:"value" db:"value"`
	Date      time.Time `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

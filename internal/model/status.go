package model

// Subscription status values as reported by the billing provider.
const (
	StatusActive            = "active"
	StatusTrialing          = "trialing"
	StatusCanceled          = "canceled"
	StatusPastDue           = "past_due"
	StatusUnpaid            = "unpaid"
	StatusIncomplete        = "incomplete"
	StatusIncompleteExpired = "incomplete_expired"
	StatusPaused            = "paused"
)

// IsRevenueStatus reports whether a subscription in this status counts toward
// recurring revenue.
func IsRevenueStatus(status string) bool {
	return status == StatusActive || status == StatusTrialing
}

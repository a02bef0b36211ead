package analytics

import (
	"time"

	"github.com/edvin/saaslens/internal/model"
)

// NetDollarRetention compares revenue from subscriptions active at the end of
// the window with revenue active at its start, as a percentage.
func NetDollarRetention(subs []model.Subscription, start, end time.Time) float64 {
	var startRevenue, endRevenue float64
	for _, s := range subs {
		if s.ActiveAt(start) {
			startRevenue += s.Amount
		}
		if s.ActiveAt(end) {
			endRevenue += s.Amount
		}
	}
	return percent(endRevenue, startRevenue)
}

// GrossLogoRetention is the share of customers active at start that did not
// cancel a subscription during the window. An empty start cohort retains 100%.
func GrossLogoRetention(subs []model.Subscription, start, end time.Time) float64 {
	cohort := map[string]bool{}
	for _, s := range subs {
		if s.ActiveAt(start) {
			cohort[s.CustomerID] = true
		}
	}
	if len(cohort) == 0 {
		return 100
	}

	churned := map[string]bool{}
	for _, s := range subs {
		if s.CanceledAt == nil || !cohort[s.CustomerID] {
			continue
		}
		if !s.CanceledAt.Before(start) && !s.CanceledAt.After(end) {
			churned[s.CustomerID] = true
		}
	}
	return float64(len(cohort)-len(churned)) / float64(len(cohort)) * 100
}

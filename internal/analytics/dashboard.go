package analytics

import (
	"time"

	"github.com/edvin/saaslens/internal/model"
)

type DashboardSummary struct {
	MRR                float64 `json:"mrr"`
	ARR                float64 `json:"arr"`
	LTV                float64 `json:"ltv"`
	ActiveCustomers    int     `json:"activeCustomers"`
	TotalCustomers     int     `json:"totalCustomers"`
	ChurnRate          float64 `json:"churnRate"`
	NetDollarRetention float64 `json:"netDollarRetention"`
	GrossLogoRetention float64 `json:"grossLogoRetention"`
}

// Summarize computes the dashboard headline numbers. Churn and retention cover
// the month ending at now.
func Summarize(subs []model.Subscription, totalCustomers int, lifetimeMonths int, now time.Time) DashboardSummary {
	rev := RevenueMetrics(subs, totalCustomers, RevenueOptions{LifetimeMonths: lifetimeMonths})
	start := now.AddDate(0, -1, 0)

	active := map[string]bool{}
	runningAtStart, canceled := 0, 0
	for _, s := range subs {
		if s.ActiveAt(now) {
			active[s.CustomerID] = true
		}
		if s.ActiveAt(start) {
			runningAtStart++
		}
		if s.CanceledAt != nil && !s.CanceledAt.Before(start) && !s.CanceledAt.After(now) {
			canceled++
		}
	}

	return DashboardSummary{
		MRR:                rev.MRR,
		ARR:                rev.ARR,
		LTV:                rev.LTV,
		ActiveCustomers:    len(active),
		TotalCustomers:     totalCustomers,
		ChurnRate:          percent(float64(canceled), float64(runningAtStart)),
		NetDollarRetention: NetDollarRetention(subs, start, now),
		GrossLogoRetention: GrossLogoRetention(subs, start, now),
	}
}

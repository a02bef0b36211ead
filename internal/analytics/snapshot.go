package analytics

import (
	"time"

	"github.com/edvin/saaslens/internal/model"
)

const snapshotTrendMonths = 6

type MRRPoint struct {
	Month string  `json:"month"`
	MRR   float64 `json:"mrr"`
}

type Snapshot struct {
	MRR             float64    `json:"mrr"`
	ChurnRate       float64    `json:"churnRate"`
	ActiveCustomers int        `json:"activeCustomers"`
	MRRTrend        []MRRPoint `json:"mrrTrend"`
}

// ComputeSnapshot derives the headline metrics persisted by metric generation.
// Churn covers the previous calendar month: cancellations inside it over the
// subscriptions running when it began.
func ComputeSnapshot(subs []model.Subscription, now time.Time) Snapshot {
	var snap Snapshot
	active := map[string]bool{}
	for _, s := range subs {
		if model.IsRevenueStatus(s.Status) {
			snap.MRR += s.Amount
			active[s.CustomerID] = true
		}
	}
	snap.ActiveCustomers = len(active)

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastStart := thisMonth.AddDate(0, -1, 0)
	lastEnd := thisMonth.Add(-time.Nanosecond)

	runningAtStart, canceled := 0, 0
	for _, s := range subs {
		if s.ActiveAt(lastStart) {
			runningAtStart++
		}
		if s.CanceledAt != nil && !s.CanceledAt.Before(lastStart) && !s.CanceledAt.After(lastEnd) {
			canceled++
		}
	}
	snap.ChurnRate = percent(float64(canceled), float64(runningAtStart))

	snap.MRRTrend = make([]MRRPoint, 0, snapshotTrendMonths)
	for _, m := range lastMonths(now, snapshotTrendMonths) {
		var mrr float64
		for _, s := range subs {
			if model.IsRevenueStatus(s.Status) && activeDuring(s, m) {
				mrr += s.Amount
			}
		}
		snap.MRRTrend = append(snap.MRRTrend, MRRPoint{Month: m.label, MRR: mrr})
	}
	return snap
}

// Records converts the snapshot into the rows persisted as the metric audit trail.
func (s Snapshot) Records(now time.Time) []model.MetricSnapshot {
	return []model.MetricSnapshot{
		{Type: model.MetricMRR, Value: s.MRR, Date: now},
		{Type: model.MetricChurnRate, Value: s.ChurnRate, Date: now},
		{Type: model.MetricActiveCustomers, Value: float64(s.ActiveCustomers), Date: now},
	}
}

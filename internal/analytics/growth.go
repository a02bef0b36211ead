package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/edvin/saaslens/internal/model"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts "daily", "weekly" or "monthly". An empty string
// means monthly.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "":
		return Monthly, nil
	case Daily, Weekly, Monthly:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// PeriodKey truncates t to its bucket key. Weeks start on Monday (ISO 8601)
// and are keyed by the date of that Monday.
func (g Granularity) PeriodKey(t time.Time) string {
	t = t.UTC()
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset).Format("2006-01-02")
	default:
		return t.Format("2006-01")
	}
}

type GrowthPoint struct {
	Period                string `json:"period"`
	NewSubscriptions      int    `json:"newSubscriptions"`
	CanceledSubscriptions int    `json:"canceledSubscriptions"`
	NetGrowth             int    `json:"netGrowth"`
	TotalSubscriptions    int    `json:"totalSubscriptions"`
}

// SubscriptionGrowth buckets every start date as a new event and every cancel
// date as a canceled event. Each event is filtered by the period on its own
// date. TotalSubscriptions is the running sum of NetGrowth in key order.
func SubscriptionGrowth(subs []model.Subscription, g Granularity, period Period) []GrowthPoint {
	buckets := map[string]*GrowthPoint{}
	bucket := func(t time.Time) *GrowthPoint {
		key := g.PeriodKey(t)
		p, ok := buckets[key]
		if !ok {
			p = &GrowthPoint{Period: key}
			buckets[key] = p
		}
		return p
	}

	for _, s := range subs {
		if period.Contains(s.StartDate) {
			p := bucket(s.StartDate)
			p.NewSubscriptions++
			p.NetGrowth++
		}
		if s.CanceledAt != nil && period.Contains(*s.CanceledAt) {
			p := bucket(*s.CanceledAt)
			p.CanceledSubscriptions++
			p.NetGrowth--
		}
	}

	out := make([]GrowthPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })

	total := 0
	for i := range out {
		total += out[i].NetGrowth
		out[i].TotalSubscriptions = total
	}
	return out
}

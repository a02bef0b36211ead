package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/edvin/saaslens/internal/model"
)

const visualizationMonths = 12

type MonthValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type PlanShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Visualizations struct {
	MRRTrend         []MonthValue `json:"mrrTrend"`
	CustomerGrowth   []MonthValue `json:"customerGrowth"`
	PlanDistribution []PlanShare  `json:"planDistribution"`
	ChurnRate        []MonthValue `json:"churnRate"`
}

type monthWindow struct {
	label string
	start time.Time
	end   time.Time
}

// lastMonths returns n calendar-month windows ending with the month of now,
// oldest first. The current month's window ends at now.
func lastMonths(now time.Time, n int) []monthWindow {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]monthWindow, n)
	for i := 0; i < n; i++ {
		start := current.AddDate(0, -(n - 1 - i), 0)
		end := start.AddDate(0, 1, 0)
		if i == n-1 {
			end = now
		}
		out[i] = monthWindow{label: start.Format("Jan 2006"), start: start, end: end}
	}
	return out
}

// activeDuring reports whether s overlapped the window at any point.
func activeDuring(s model.Subscription, w monthWindow) bool {
	if !s.StartDate.Before(w.end) {
		return false
	}
	return s.EndDate == nil || w.start.Before(*s.EndDate)
}

// BuildVisualizations computes the trailing twelve month dashboard series.
// Churn for a month is the share of the previous month's customers whose
// subscriptions had all ended before the month began.
func BuildVisualizations(subs []model.Subscription, products []model.Product, now time.Time) Visualizations {
	months := lastMonths(now, visualizationMonths)
	v := Visualizations{
		MRRTrend:         make([]MonthValue, 0, len(months)),
		CustomerGrowth:   make([]MonthValue, 0, len(months)),
		ChurnRate:        make([]MonthValue, 0, len(months)),
		PlanDistribution: make([]PlanShare, 0, len(products)),
	}

	byCustomer := map[string][]model.Subscription{}
	for _, s := range subs {
		byCustomer[s.CustomerID] = append(byCustomer[s.CustomerID], s)
	}

	monthCustomers := make([]map[string]bool, len(months))
	for i, m := range months {
		var mrr float64
		customers := map[string]bool{}
		for _, s := range subs {
			if activeDuring(s, m) {
				mrr += s.Amount
				customers[s.CustomerID] = true
			}
		}
		monthCustomers[i] = customers
		v.MRRTrend = append(v.MRRTrend, MonthValue{Month: m.label, Value: mrr})
		v.CustomerGrowth = append(v.CustomerGrowth, MonthValue{Month: m.label, Value: float64(len(customers))})
	}

	for i, m := range months {
		if i == 0 {
			v.ChurnRate = append(v.ChurnRate, MonthValue{Month: m.label})
			continue
		}
		prev := monthCustomers[i-1]
		lost := 0
		for id := range prev {
			if allEndedBefore(byCustomer[id], m.start) {
				lost++
			}
		}
		rate := percent(float64(lost), float64(len(prev)))
		v.ChurnRate = append(v.ChurnRate, MonthValue{Month: m.label, Value: math.Round(rate*10) / 10})
	}

	planCustomers := map[string]map[string]bool{}
	for _, s := range subs {
		if s.Status != model.StatusActive && s.CanceledAt != nil {
			continue
		}
		if planCustomers[s.ProductID] == nil {
			planCustomers[s.ProductID] = map[string]bool{}
		}
		planCustomers[s.ProductID][s.CustomerID] = true
	}
	for _, p := range products {
		v.PlanDistribution = append(v.PlanDistribution, PlanShare{Name: p.Name, Value: len(planCustomers[p.ID])})
	}
	sort.SliceStable(v.PlanDistribution, func(i, j int) bool {
		return v.PlanDistribution[i].Name < v.PlanDistribution[j].Name
	})
	return v
}

func allEndedBefore(subs []model.Subscription, t time.Time) bool {
	for _, s := range subs {
		if s.EndDate == nil || !s.EndDate.Before(t) {
			return false
		}
	}
	return true
}

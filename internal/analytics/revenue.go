package analytics

import (
	"sort"

	"github.com/edvin/saaslens/internal/model"
)

// DefaultAssumedLifetimeMonths is the average customer lifetime used for LTV.
// It is a fixed assumption, not derived from historical retention.
const DefaultAssumedLifetimeMonths = 12

type RevenueOptions struct {
	ByProduct bool
	// LifetimeMonths overrides DefaultAssumedLifetimeMonths when positive.
	LifetimeMonths int
}

type ProductRevenue struct {
	Name          string  `json:"name"`
	CustomerCount int     `json:"customerCount"`
	MRR           float64 `json:"mrr"`
	ARR           float64 `json:"arr"`
	PercentOfMRR  float64 `json:"percentOfMrr"`
}

type RevenueResult struct {
	MRR                   float64          `json:"mrr"`
	ARR                   float64          `json:"arr"`
	LTV                   float64          `json:"ltv"`
	ActiveCustomerCount   int              `json:"activeCustomerCount"`
	AvgRevenuePerCustomer float64          `json:"avgRevenuePerCustomer"`
	ByProduct             []ProductRevenue `json:"byProduct,omitempty"`
}

// RevenueMetrics computes recurring revenue over the active and trialing
// subscriptions in subs. totalCustomers is the size of the whole customer base
// and drives LTV.
func RevenueMetrics(subs []model.Subscription, totalCustomers int, opts RevenueOptions) RevenueResult {
	lifetime := opts.LifetimeMonths
	if lifetime <= 0 {
		lifetime = DefaultAssumedLifetimeMonths
	}

	var res RevenueResult
	groups := map[string]*ProductRevenue{}
	for _, s := range subs {
		if !model.IsRevenueStatus(s.Status) {
			continue
		}
		res.MRR += s.Amount
		res.ActiveCustomerCount++

		if opts.ByProduct {
			name := s.ProductName()
			g, ok := groups[name]
			if !ok {
				g = &ProductRevenue{Name: name}
				groups[name] = g
			}
			g.CustomerCount++
			g.MRR += s.Amount
		}
	}

	res.ARR = res.MRR * 12
	if totalCustomers > 0 {
		res.LTV = res.MRR / float64(totalCustomers) * float64(lifetime)
	}
	if res.ActiveCustomerCount > 0 {
		res.AvgRevenuePerCustomer = res.MRR / float64(res.ActiveCustomerCount)
	}

	if opts.ByProduct {
		res.ByProduct = make([]ProductRevenue, 0, len(groups))
		for _, g := range groups {
			g.ARR = g.MRR * 12
			g.PercentOfMRR = percent(g.MRR, res.MRR)
			res.ByProduct = append(res.ByProduct, *g)
		}
		sort.Slice(res.ByProduct, func(i, j int) bool {
			return res.ByProduct[i].Name < res.ByProduct[j].Name
		})
	}
	return res
}

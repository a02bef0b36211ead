package assistant

import (
	"context"
	"math"
	"time"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

const (
	defaultSampleSize = 10
	maxSampleSize     = 20
	maxEmailMatches   = 5
)

var revenueStatuses = []string{model.StatusActive, model.StatusTrialing}

type CustomerStore interface {
	Count(ctx context.Context, f core.CustomerFilter) (int, error)
	List(ctx context.Context, f core.CustomerFilter, opts core.ListOptions) ([]model.Customer, bool, error)
}

type ProductStore interface {
	Stats(ctx context.Context) ([]core.ProductStats, error)
}

type SubscriptionStore interface {
	List(ctx context.Context, f core.SubscriptionFilter) ([]model.Subscription, error)
	SumAmount(ctx context.Context, f core.SubscriptionFilter) (float64, error)
}

// Tools implements the query tools over the record store.
type Tools struct {
	customers      CustomerStore
	products       ProductStore
	subscriptions  SubscriptionStore
	clock          analytics.Clock
	lifetimeMonths int
}

func NewTools(customers CustomerStore, products ProductStore, subscriptions SubscriptionStore, clock analytics.Clock, lifetimeMonths int) *Tools {
	return &Tools{
		customers:      customers,
		products:       products,
		subscriptions:  subscriptions,
		clock:          clock,
		lifetimeMonths: lifetimeMonths,
	}
}

// timePeriods maps the timePeriod argument to a number of months back from now.
var timePeriods = map[string]int{
	"all time":      0,
	"last month":    1,
	"last 3 months": 3,
	"last 6 months": 6,
	"last year":     12,
}

func (t *Tools) period(name string) analytics.Period {
	return analytics.MonthsBack(t.clock.Now(), timePeriods[name])
}

// --- countCustomers ---

type countCustomersArgs struct {
	Filter string `json:"filter" validate:"omitempty,oneof=all 'with active subscriptions'"`
}

type customerCount struct {
	Count int `json:"count"`
}

type activeCustomerCount struct {
	ActiveCustomers int `json:"activeCustomers"`
	TotalCustomers  int `json:"totalCustomers"`
}

func (t *Tools) countCustomers(ctx context.Context, args countCustomersArgs) (any, error) {
	total, err := t.customers.Count(ctx, core.CustomerFilter{})
	if err != nil {
		return nil, err
	}
	if args.Filter != "with active subscriptions" {
		return customerCount{Count: total}, nil
	}

	active, err := t.customers.Count(ctx, core.CustomerFilter{
		HasSubscription: &core.SubscriptionFilter{Statuses: revenueStatuses},
	})
	if err != nil {
		return nil, err
	}
	return activeCustomerCount{ActiveCustomers: active, TotalCustomers: total}, nil
}

// --- getProductStats ---

type productTotals struct {
	Products            int     `json:"products"`
	Subscriptions       int     `json:"subscriptions"`
	ActiveSubscriptions int     `json:"activeSubscriptions"`
	MRR                 float64 `json:"mrr"`
}

type productStatsResult struct {
	Products []core.ProductStats `json:"products"`
	Totals   productTotals       `json:"totals"`
}

func (t *Tools) getProductStats(ctx context.Context, _ struct{}) (any, error) {
	stats, err := t.products.Stats(ctx)
	if err != nil {
		return nil, err
	}
	res := productStatsResult{Products: stats, Totals: productTotals{Products: len(stats)}}
	for _, p := range stats {
		res.Totals.Subscriptions += p.TotalSubscriptions
		res.Totals.ActiveSubscriptions += p.ActiveSubscriptions
		res.Totals.MRR += p.MRR
	}
	return res, nil
}

// --- getCustomerSample ---

type customerSampleArgs struct {
	Count         *int   `json:"count" validate:"omitempty,min=1"`
	ProductFilter string `json:"productFilter" validate:"max=200"`
	StatusFilter  string `json:"statusFilter" validate:"omitempty,oneof=active trialing canceled past_due unpaid incomplete incomplete_expired paused"`
}

type sampledCustomer struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	Name              *string  `json:"name,omitempty"`
	SubscriptionCount int      `json:"subscriptionCount"`
	Products          []string `json:"products"`
	TotalPaid         float64  `json:"totalPaid"`
	Status            string   `json:"status"`
}

type customerSampleResult struct {
	Customers []sampledCustomer `json:"customers"`
}

func (t *Tools) getCustomerSample(ctx context.Context, args customerSampleArgs) (any, error) {
	limit := defaultSampleSize
	if args.Count != nil {
		limit = *args.Count
	}
	limit = min(limit, maxSampleSize)

	var filter core.CustomerFilter
	if args.ProductFilter != "" || args.StatusFilter != "" {
		sub := &core.SubscriptionFilter{ProductName: args.ProductFilter}
		if args.StatusFilter != "" {
			sub.Statuses = []string{args.StatusFilter}
		}
		filter.HasSubscription = sub
	}

	customers, _, err := t.customers.List(ctx, filter, core.ListOptions{Limit: limit, IncludeSubscriptions: true})
	if err != nil {
		return nil, err
	}

	now := t.clock.Now()
	res := customerSampleResult{Customers: make([]sampledCustomer, 0, len(customers))}
	for _, c := range customers {
		sc := sampledCustomer{
			ID:                c.ID,
			Email:             c.Email,
			Name:              c.Name,
			SubscriptionCount: len(c.Subscriptions),
			Products:          make([]string, 0, len(c.Subscriptions)),
			Status:            "none",
		}
		for _, s := range c.Subscriptions {
			if name := s.ProductName(); name != "" {
				sc.Products = append(sc.Products, name)
			}
			sc.TotalPaid += s.Amount * float64(billedPeriods(s, now))
			sc.Status = s.Status
		}
		res.Customers = append(res.Customers, sc)
	}
	return res, nil
}

// billedPeriods counts started 30-day periods, at least one. Open
// subscriptions run until now.
func billedPeriods(s model.Subscription, now time.Time) int {
	end := now
	if s.EndDate != nil {
		end = *s.EndDate
	}
	periods := int(math.Ceil(end.Sub(s.StartDate).Hours() / 24 / 30))
	return max(1, periods)
}

// billedMonths counts calendar months between start and end, at least one.
func billedMonths(s model.Subscription, now time.Time) int {
	end := now
	if s.EndDate != nil {
		end = *s.EndDate
	}
	months := (end.Year()-s.StartDate.Year())*12 + int(end.Month()) - int(s.StartDate.Month())
	return max(1, months)
}

// --- calculateChurnRate ---

type churnArgs struct {
	Product    string `json:"product" validate:"max=200"`
	TimePeriod string `json:"timePeriod" validate:"omitempty,oneof='all time' 'last month' 'last 3 months' 'last 6 months' 'last year'"`
}

type churnResult struct {
	analytics.ChurnResult
	TimePeriod string `json:"timePeriod"`
	Product    string `json:"product"`
}

func (t *Tools) calculateChurnRate(ctx context.Context, args churnArgs) (any, error) {
	if args.TimePeriod == "" {
		args.TimePeriod = "all time"
	}
	subs, err := t.subscriptions.List(ctx, core.SubscriptionFilter{ProductName: args.Product})
	if err != nil {
		return nil, err
	}

	res := churnResult{
		ChurnResult: analytics.ChurnRate(subs, t.period(args.TimePeriod), args.Product),
		TimePeriod:  args.TimePeriod,
		Product:     args.Product,
	}
	if res.Product == "" {
		res.Product = "all products"
	}
	return res, nil
}

// --- getRevenueMetrics ---

type revenueArgs struct {
	Metric    string `json:"metric" validate:"omitempty,oneof=mrr arr ltv all"`
	ByProduct bool   `json:"byProduct"`
}

type mrrResult struct {
	MRR       float64                    `json:"mrr"`
	ByProduct []analytics.ProductRevenue `json:"byProduct,omitempty"`
}

type arrResult struct {
	ARR       float64                    `json:"arr"`
	ByProduct []analytics.ProductRevenue `json:"byProduct,omitempty"`
}

type ltvResult struct {
	LTV float64 `json:"ltv"`
}

func (t *Tools) getRevenueMetrics(ctx context.Context, args revenueArgs) (any, error) {
	active := core.SubscriptionFilter{Statuses: revenueStatuses}

	if !args.ByProduct && (args.Metric == "mrr" || args.Metric == "arr") {
		mrr, err := t.subscriptions.SumAmount(ctx, active)
		if err != nil {
			return nil, err
		}
		if args.Metric == "mrr" {
			return mrrResult{MRR: mrr}, nil
		}
		return arrResult{ARR: mrr * 12}, nil
	}

	subs, err := t.subscriptions.List(ctx, active)
	if err != nil {
		return nil, err
	}
	total, err := t.customers.Count(ctx, core.CustomerFilter{})
	if err != nil {
		return nil, err
	}
	rev := analytics.RevenueMetrics(subs, total, analytics.RevenueOptions{
		ByProduct:      args.ByProduct,
		LifetimeMonths: t.lifetimeMonths,
	})

	switch args.Metric {
	case "mrr":
		return mrrResult{MRR: rev.MRR, ByProduct: rev.ByProduct}, nil
	case "arr":
		return arrResult{ARR: rev.ARR, ByProduct: rev.ByProduct}, nil
	case "ltv":
		return ltvResult{LTV: rev.LTV}, nil
	}
	return rev, nil
}

// --- getSubscriptionGrowth ---

type growthArgs struct {
	TimeGranularity string `json:"timeGranularity" validate:"omitempty,oneof=daily weekly monthly"`
	TimePeriod      string `json:"timePeriod" validate:"omitempty,oneof='all time' 'last month' 'last 3 months' 'last 6 months' 'last year'"`
}

type growthResult struct {
	GrowthByPeriod  []analytics.GrowthPoint `json:"growthByPeriod"`
	TimeGranularity string                  `json:"timeGranularity"`
	TimePeriod      string                  `json:"timePeriod"`
}

func (t *Tools) getSubscriptionGrowth(ctx context.Context, args growthArgs) (any, error) {
	g, err := analytics.ParseGranularity(args.TimeGranularity)
	if err != nil {
		return nil, err
	}
	if args.TimePeriod == "" {
		args.TimePeriod = "all time"
	}

	subs, err := t.subscriptions.List(ctx, core.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}
	return growthResult{
		GrowthByPeriod:  analytics.SubscriptionGrowth(subs, g, t.period(args.TimePeriod)),
		TimeGranularity: string(g),
		TimePeriod:      args.TimePeriod,
	}, nil
}

// --- findCustomerByEmail ---

type findByEmailArgs struct {
	Email string `json:"email" validate:"required,max=320"`
}

type subscriptionHistoryEntry struct {
	Product    string     `json:"product"`
	Price      float64    `json:"price"`
	Status     string     `json:"status"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    *time.Time `json:"endDate"`
	CanceledAt *time.Time `json:"canceledAt"`
}

type customerProfile struct {
	ID                  string                     `json:"id"`
	Email               string                     `json:"email"`
	Name                *string                    `json:"name,omitempty"`
	CurrentPlan         string                     `json:"currentPlan"`
	MonthlyValue        float64                    `json:"monthlyValue"`
	IsActive            bool                       `json:"isActive"`
	TotalPaid           float64                    `json:"totalPaid"`
	SubscriptionHistory []subscriptionHistoryEntry `json:"subscriptionHistory"`
}

type customerMatches struct {
	Customers []customerProfile `json:"customers"`
}

type noMatch struct {
	Message string `json:"message"`
}

func (t *Tools) findCustomerByEmail(ctx context.Context, args findByEmailArgs) (any, error) {
	customers, _, err := t.customers.List(ctx,
		core.CustomerFilter{Email: &core.TextMatch{Contains: args.Email}},
		core.ListOptions{Limit: maxEmailMatches, IncludeSubscriptions: true},
	)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return noMatch{Message: "No customers found with that email"}, nil
	}

	now := t.clock.Now()
	res := customerMatches{Customers: make([]customerProfile, 0, len(customers))}
	for _, c := range customers {
		p := customerProfile{
			ID:                  c.ID,
			Email:               c.Email,
			Name:                c.Name,
			CurrentPlan:         "None",
			SubscriptionHistory: make([]subscriptionHistoryEntry, 0, len(c.Subscriptions)),
		}
		for _, s := range c.Subscriptions {
			p.TotalPaid += s.Amount * float64(billedMonths(s, now))
			if model.IsRevenueStatus(s.Status) {
				// Subscriptions arrive in start order, so the last match is the newest plan.
				p.CurrentPlan = s.ProductName()
				p.MonthlyValue = s.Amount
				p.IsActive = true
			}
			p.SubscriptionHistory = append(p.SubscriptionHistory, subscriptionHistoryEntry{
				Product:    s.ProductName(),
				Price:      s.Amount,
				Status:     s.Status,
				StartDate:  s.StartDate,
				EndDate:    s.EndDate,
				CanceledAt: s.CanceledAt,
			})
		}
		res.Customers = append(res.Customers, p)
	}
	return res, nil
}

// --- analyzePlanChanges ---

type planChangeArgs struct {
	ChangeType string `json:"changeType" validate:"omitempty,oneof=upgrades downgrades both"`
}

func (t *Tools) analyzePlanChanges(ctx context.Context, args planChangeArgs) (any, error) {
	ct, err := analytics.ParseChangeType(args.ChangeType)
	if err != nil {
		return nil, err
	}
	customers, _, err := t.customers.List(ctx, core.CustomerFilter{}, core.ListOptions{IncludeSubscriptions: true})
	if err != nil {
		return nil, err
	}
	return analytics.PlanChangeAnalysis(customers, ct), nil
}

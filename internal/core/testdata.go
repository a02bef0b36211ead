package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/edvin/saaslens/internal/model"
)

const (
	minGeneratedCustomers = 10
	maxGeneratedCustomers = 30
	cancelGraceDays       = 30
)

// Dataset is a batch of generated records that has not been persisted yet.
// Subscriptions carry their Product by pointer into Products.
type Dataset struct {
	Products  []model.Product
	Customers []model.Customer
}

// SeedResult reports how many records a seeding run added and the totals after it.
type SeedResult struct {
	NewCustomers       int `json:"newCustomersCount"`
	TotalCustomers     int `json:"totalCustomersCount"`
	TotalSubscriptions int `json:"totalSubscriptionsCount"`
}

func demoProducts() []model.Product {
	return []model.Product{
		{Name: "Free", Price: 0},
		{Name: "Plus", Price: 20},
		{Name: "Pro", Price: 200},
	}
}

// GenerateDataset builds a random customer base starting at customer number
// first. Customers start one to twelve months before now, 80% stay active and
// 15% add a second, usually higher, plan.
func GenerateDataset(rng *rand.Rand, now time.Time, first int) Dataset {
	ds := Dataset{Products: demoProducts()}
	free, plus, pro := &ds.Products[0], &ds.Products[1], &ds.Products[2]

	n := minGeneratedCustomers + rng.IntN(maxGeneratedCustomers-minGeneratedCustomers+1)
	for i := 0; i < n; i++ {
		num := first + i
		c := model.Customer{
			StripeID: fmt.Sprintf("cus_test%d", num),
			Email:    fmt.Sprintf("customer%d@example.com", num),
		}

		start := now.AddDate(0, -(rng.IntN(12) + 1), 0)
		var product *model.Product
		switch r := rng.Float64(); {
		case r < 0.3:
			product = free
		case r < 0.8:
			product = plus
		default:
			product = pro
		}
		firstSub := generatedSubscription(rng, fmt.Sprintf("sub_test%d", num), product, start, now, 0.8)
		c.Subscriptions = append(c.Subscriptions, firstSub)

		if rng.Float64() < 0.15 {
			secondStart := start.AddDate(0, 0, rng.IntN(90)+30)
			if secondStart.Before(now) {
				next := pro
				if product == free && rng.Float64() < 0.7 {
					next = plus
				}
				// A plan change is a new record; the earlier subscription keeps
				// its own status and dates.
				second := generatedSubscription(rng, fmt.Sprintf("sub_test%d_second", num), next, secondStart, now, 0.9)
				c.Subscriptions = append(c.Subscriptions, second)
			}
		}
		ds.Customers = append(ds.Customers, c)
	}
	return ds
}

func generatedSubscription(rng *rand.Rand, stripeID string, p *model.Product, start, now time.Time, activeShare float64) model.Subscription {
	sub := model.Subscription{
		StripeID:  stripeID,
		Status:    model.StatusActive,
		Amount:    p.Price,
		StartDate: start,
		Product:   p,
	}
	if rng.Float64() < activeShare {
		return sub
	}

	days := int(now.Sub(start).Hours() / 24)
	offset := 0
	if days > 0 {
		offset = rng.IntN(days)
	}
	canceled := start.AddDate(0, 0, offset)
	end := canceled.AddDate(0, 0, cancelGraceDays)
	sub.Status = model.StatusCanceled
	sub.CanceledAt = &canceled
	sub.EndDate = &end
	return sub
}

// Seeder appends generated demo data to the store.
type Seeder struct {
	customers     *CustomerService
	products      *ProductService
	subscriptions *SubscriptionService
	now           func() time.Time
}

func NewSeeder(db DB, now func() time.Time) *Seeder {
	return &Seeder{
		customers:     NewCustomerService(db),
		products:      NewProductService(db),
		subscriptions: NewSubscriptionService(db),
		now:           now,
	}
}

// Seed generates a dataset numbered after the existing customers and persists it.
func (s *Seeder) Seed(ctx context.Context, rng *rand.Rand) (*SeedResult, error) {
	existing, err := s.customers.Count(ctx, CustomerFilter{})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	ds := GenerateDataset(rng, s.now(), existing+1)
	for i := range ds.Products {
		if err := s.products.UpsertByName(ctx, &ds.Products[i]); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	for i := range ds.Customers {
		c := &ds.Customers[i]
		if err := s.customers.UpsertByStripeID(ctx, c); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		for j := range c.Subscriptions {
			sub := &c.Subscriptions[j]
			sub.CustomerID = c.ID
			sub.ProductID = sub.Product.ID
			if err := s.subscriptions.UpsertByStripeID(ctx, sub); err != nil {
				return nil, fmt.Errorf("seed: %w", err)
			}
		}
	}

	res := &SeedResult{NewCustomers: len(ds.Customers)}
	if res.TotalCustomers, err = s.customers.Count(ctx, CustomerFilter{}); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if res.TotalSubscriptions, err = s.subscriptions.Count(ctx, SubscriptionFilter{}); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return res, nil
}

package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saaslens/internal/model"
)

func revenueFixture() []model.Subscription {
	return []model.Subscription{
		newSub("c1", plus, model.StatusActive, day(2024, 1, 1)),
		newSub("c2", pro, model.StatusActive, day(2024, 1, 2)),
		newSub("c3", plus, model.StatusTrialing, day(2024, 1, 3)),
		canceledSub("c4", pro, day(2024, 1, 4), day(2024, 2, 4), day(2024, 3, 4)),
	}
}

func TestRevenueMetrics(t *testing.T) {
	res := RevenueMetrics(revenueFixture(), 4, RevenueOptions{})

	assert.InDelta(t, 240.0, res.MRR, 0.0001)
	assert.InDelta(t, 2880.0, res.ARR, 0.0001)
	assert.InDelta(t, 720.0, res.LTV, 0.0001)
	assert.Equal(t, 3, res.ActiveCustomerCount)
	assert.InDelta(t, 80.0, res.AvgRevenuePerCustomer, 0.0001)
	assert.Nil(t, res.ByProduct)
}

func TestRevenueMetrics_LifetimeOverride(t *testing.T) {
	res := RevenueMetrics(revenueFixture(), 4, RevenueOptions{LifetimeMonths: 24})
	assert.InDelta(t, 1440.0, res.LTV, 0.0001)
}

func TestRevenueMetrics_ByProduct(t *testing.T) {
	res := RevenueMetrics(revenueFixture(), 4, RevenueOptions{ByProduct: true})

	require.Len(t, res.ByProduct, 2)
	assert.Equal(t, "Plus", res.ByProduct[0].Name)
	assert.Equal(t, 2, res.ByProduct[0].CustomerCount)
	assert.InDelta(t, 40.0, res.ByProduct[0].MRR, 0.0001)
	assert.InDelta(t, 480.0, res.ByProduct[0].ARR, 0.0001)
	assert.InDelta(t, 16.6667, res.ByProduct[0].PercentOfMRR, 0.001)

	assert.Equal(t, "Pro", res.ByProduct[1].Name)
	assert.Equal(t, 1, res.ByProduct[1].CustomerCount)
	assert.InDelta(t, 83.3333, res.ByProduct[1].PercentOfMRR, 0.001)
}

func TestRevenueMetrics_NoActiveSubscriptions(t *testing.T) {
	subs := []model.Subscription{
		canceledSub("c1", pro, day(2024, 1, 4), day(2024, 2, 4), day(2024, 3, 4)),
	}
	res := RevenueMetrics(subs, 1, RevenueOptions{ByProduct: true})

	assert.Zero(t, res.MRR)
	assert.Zero(t, res.AvgRevenuePerCustomer)
	assert.Zero(t, res.LTV)
	assert.Empty(t, res.ByProduct)
}

func TestRevenueMetrics_NoCustomers(t *testing.T) {
	res := RevenueMetrics(nil, 0, RevenueOptions{})
	assert.Equal(t, RevenueResult{}, res)
}

func TestRevenueMetrics_Deterministic(t *testing.T) {
	first, err := json.Marshal(RevenueMetrics(revenueFixture(), 4, RevenueOptions{ByProduct: true}))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(RevenueMetrics(revenueFixture(), 4, RevenueOptions{ByProduct: true}))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

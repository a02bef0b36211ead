package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saaslens/internal/model"
)

func TestComputeSnapshot(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	s1 := newSub("c1", pro, model.StatusActive, day(2024, 1, 1))
	s1.Amount = 100
	s2 := canceledSub("c2", pro, day(2024, 2, 1), day(2024, 5, 10), day(2024, 6, 9))
	s2.Amount = 50
	s3 := newSub("c3", plus, model.StatusTrialing, day(2024, 6, 1))
	s3.Amount = 30

	snap := ComputeSnapshot([]model.Subscription{s1, s2, s3}, now)

	assert.InDelta(t, 130.0, snap.MRR, 0.0001)
	assert.Equal(t, 2, snap.ActiveCustomers)
	assert.InDelta(t, 50.0, snap.ChurnRate, 0.0001)

	require.Len(t, snap.MRRTrend, 6)
	assert.Equal(t, MRRPoint{Month: "Jan 2024", MRR: 100}, snap.MRRTrend[0])
	assert.Equal(t, MRRPoint{Month: "May 2024", MRR: 100}, snap.MRRTrend[4])
	assert.Equal(t, MRRPoint{Month: "Jun 2024", MRR: 130}, snap.MRRTrend[5])

	records := snap.Records(now)
	require.Len(t, records, 3)
	assert.Equal(t, model.MetricMRR, records[0].Type)
	assert.Equal(t, model.MetricChurnRate, records[1].Type)
	assert.Equal(t, model.MetricActiveCustomers, records[2].Type)
	assert.Equal(t, 2.0, records[2].Value)
	assert.Equal(t, now, records[2].Date)
}

func TestComputeSnapshot_Empty(t *testing.T) {
	snap := ComputeSnapshot(nil, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, snap.MRR)
	assert.Zero(t, snap.ChurnRate)
	assert.Len(t, snap.MRRTrend, 6)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	subs := []model.Subscription{
		newSub("c1", pro, model.StatusActive, day(2024, 1, 1)),
		canceledSub("c2", plus, day(2024, 1, 1), day(2024, 6, 1), day(2024, 6, 10)),
	}

	sum := Summarize(subs, 2, 0, now)
	assert.InDelta(t, 200.0, sum.MRR, 0.0001)
	assert.InDelta(t, 2400.0, sum.ARR, 0.0001)
	assert.InDelta(t, 1200.0, sum.LTV, 0.0001)
	assert.Equal(t, 1, sum.ActiveCustomers)
	assert.Equal(t, 2, sum.TotalCustomers)
	assert.InDelta(t, 50.0, sum.ChurnRate, 0.0001)
	assert.InDelta(t, 200.0/220.0*100, sum.NetDollarRetention, 0.001)
	assert.InDelta(t, 50.0, sum.GrossLogoRetention, 0.0001)
}

func TestPeriodHelpers(t *testing.T) {
	now := day(2024, 6, 15)
	assert.Equal(t, AllTime, MonthsBack(now, 0))
	p := MonthsBack(now, 3)
	assert.Equal(t, day(2024, 3, 15), p.Start)
	assert.True(t, p.Contains(day(2024, 4, 1)))
	assert.False(t, p.Contains(day(2024, 3, 1)))
	assert.False(t, p.Contains(day(2024, 7, 1)))
	assert.True(t, AllTime.Contains(day(1990, 1, 1)))

	assert.Equal(t, now, FixedClock(now).Now())
}

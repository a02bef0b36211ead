package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionFilter_Apply(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	f := SubscriptionFilter{
		Statuses:    []string{"active", "trialing"},
		ProductName: "Pro",
		StartedIn:   &DateRange{From: from, To: to},
		CanceledIn:  &DateRange{From: from},
	}

	b := &queryBuilder{}
	f.apply(b)

	assert.Equal(t,
		" WHERE s.status = ANY($1) AND lower(p.name) = lower($2) AND s.start_date >= $3 AND s.start_date <= $4 AND s.canceled_at >= $5",
		b.where())
	assert.Equal(t, []any{[]string{"active", "trialing"}, "Pro", from, to, from}, b.args)
}

func TestSubscriptionFilter_Apply_Empty(t *testing.T) {
	b := &queryBuilder{}
	SubscriptionFilter{}.apply(b)

	assert.Equal(t, "", b.where())
	assert.Empty(t, b.args)
}

func TestCustomerFilter_Apply_NestedSubscription(t *testing.T) {
	f := CustomerFilter{
		Email:           &TextMatch{Contains: "acme"},
		HasSubscription: &SubscriptionFilter{ProductName: "plus"},
	}

	b := &queryBuilder{}
	f.apply(b)

	assert.Equal(t,
		" WHERE c.email ILIKE $1 AND EXISTS (SELECT 1 FROM subscriptions s JOIN products p ON p.id = s.product_id WHERE s.customer_id = c.id AND lower(p.name) = lower($2))",
		b.where())
	assert.Equal(t, []any{"%acme%", "plus"}, b.args)
}

func TestCustomerFilter_Apply_EscapesWildcards(t *testing.T) {
	b := &queryBuilder{}
	CustomerFilter{Email: &TextMatch{Contains: "50%_off"}}.apply(b)

	assert.Equal(t, []any{`%50\%\_off%`}, b.args)
}

func TestSubscriptionFilter_Validate(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filter  SubscriptionFilter
		wantErr bool
	}{
		{"empty", SubscriptionFilter{}, false},
		{"known statuses", SubscriptionFilter{Statuses: []string{"active", "past_due"}}, false},
		{"unknown status", SubscriptionFilter{Statuses: []string{"expired"}}, true},
		{"open ended range", SubscriptionFilter{StartedIn: &DateRange{From: from}}, false},
		{"empty range", SubscriptionFilter{StartedIn: &DateRange{}}, true},
		{"reversed range", SubscriptionFilter{CanceledIn: &DateRange{From: from, To: from.AddDate(0, 0, -1)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomerFilter_Validate(t *testing.T) {
	assert.NoError(t, CustomerFilter{}.Validate())
	assert.ErrorIs(t, CustomerFilter{Email: &TextMatch{}}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, CustomerFilter{
		HasSubscription: &SubscriptionFilter{Statuses: []string{"bogus"}},
	}.Validate(), ErrInvalidFilter)
}

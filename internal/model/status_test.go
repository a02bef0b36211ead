package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, "active", StatusActive)
	assert.Equal(t, "trialing", StatusTrialing)
	assert.Equal(t, "canceled", StatusCanceled)
	assert.Equal(t, "past_due", StatusPastDue)
	assert.Equal(t, "incomplete_expired", StatusIncompleteExpired)
}

func TestIsRevenueStatus(t *testing.T) {
	assert.True(t, IsRevenueStatus(StatusActive))
	assert.True(t, IsRevenueStatus(StatusTrialing))
	assert.False(t, IsRevenueStatus(StatusCanceled))
	assert.False(t, IsRevenueStatus(StatusPastDue))
	assert.False(t, IsRevenueStatus(""))
}

package platform

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_IsVersion7(t *testing.T) {
	id, err := uuid.Parse(NewID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestNewID_SortsByCreation(t *testing.T) {
	prev := NewID()
	for i := 0; i < 50; i++ {
		next := NewID()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestNewRunSuffix(t *testing.T) {
	tests := []struct {
		base    string
		pattern string
	}{
		{"acct_1", `^acct_1-[a-z0-9]{8}$`},
		{"acct_1-", `^acct_1-[a-z0-9]{8}$`},
		{"", `^[a-z0-9]{8}$`},
	}
	for _, tt := range tests {
		assert.Regexp(t, tt.pattern, NewRunSuffix(tt.base), "base=%q", tt.base)
	}
}

func TestNewRunSuffix_Unique(t *testing.T) {
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		s := NewRunSuffix("sync")
		assert.False(t, seen[s], "duplicate suffix: %s", s)
		seen[s] = true
	}
}

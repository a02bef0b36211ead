// Package platform holds identifier helpers shared by the record services.
package platform

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RunSuffixLength is the number of characters NewRunSuffix appends.
const RunSuffixLength = 8

// NewID returns a time-ordered UUID (version 7). Customer listings page by
// id, so newer records sort after older ones.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewRunSuffix returns base with a random lowercase suffix, for identifiers
// that must be unique per run such as workflow IDs. Separators are trimmed
// from base so "acct_1-" and "acct_1" give the same shape.
func NewRunSuffix(base string) string {
	b := make([]byte, RunSuffixLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = suffixAlphabet[b[i]%byte(len(suffixAlphabet))]
	}
	base = strings.TrimRight(base, "-")
	if base == "" {
		return string(b)
	}
	return base + "-" + string(b)
}

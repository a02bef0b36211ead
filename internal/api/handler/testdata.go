package handler

import (
	"context"
	"math/rand/v2"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/cache"
	"github.com/edvin/saaslens/internal/core"
)

// Seeder writes a batch of generated demo customers.
type Seeder interface {
	Seed(ctx context.Context, rng *rand.Rand) (*core.SeedResult, error)
}

type TestData struct {
	seeder Seeder
	cache  cache.Store
	rng    func() *rand.Rand
}

func NewTestData(seeder Seeder, store cache.Store) *TestData {
	return &TestData{
		seeder: seeder,
		cache:  store,
		rng: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

type seedResponse struct {
	Success bool `json:"success"`
	core.SeedResult
}

func (h *TestData) Generate(w http.ResponseWriter, r *http.Request) {
	res, err := h.seeder.Seed(r.Context(), h.rng())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("test data generation failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to generate test data")
		return
	}
	invalidate(r.Context(), h.cache)

	zerolog.Ctx(r.Context()).Info().
		Int("new_customers", res.NewCustomers).
		Int("total_customers", res.TotalCustomers).
		Msg("generated test data")
	response.WriteJSON(w, http.StatusOK, seedResponse{Success: true, SeedResult: *res})
}

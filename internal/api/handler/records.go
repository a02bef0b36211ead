package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/api/request"
	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

// CustomerLister pages through customers.
type CustomerLister interface {
	List(ctx context.Context, f core.CustomerFilter, opts core.ListOptions) ([]model.Customer, bool, error)
}

// ProductStatter reports per-product subscription statistics.
type ProductStatter interface {
	Stats(ctx context.Context) ([]core.ProductStats, error)
}

type Records struct {
	customers CustomerLister
	products  ProductStatter
}

func NewRecords(customers CustomerLister, products ProductStatter) *Records {
	return &Records{customers: customers, products: products}
}

// Customers returns one page of customers with their subscriptions.
// ?email filters by a case-insensitive substring.
func (h *Records) Customers(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	opts := pg.ListOptions()
	opts.IncludeSubscriptions = true

	var f core.CustomerFilter
	if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
		f.Email = &core.TextMatch{Contains: email}
	}

	customers, hasMore, err := h.customers.List(r.Context(), f, opts)
	if err != nil {
		if errors.Is(err, core.ErrInvalidFilter) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("listing customers failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to load customers")
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}

	var next string
	if hasMore {
		next = customers[len(customers)-1].ID
	}
	response.WritePaginated(w, customers, next, hasMore)
}

func (h *Records) Products(w http.ResponseWriter, r *http.Request) {
	stats, err := h.products.Stats(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("product stats failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	if stats == nil {
		stats = []core.ProductStats{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"products": stats})
}

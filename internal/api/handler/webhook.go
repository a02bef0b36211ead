package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/cache"
)

// Stripe never sends webhook payloads larger than this.
const maxWebhookBytes = 65536

// EventApplier writes the record carried by a webhook event.
type EventApplier interface {
	Apply(ctx context.Context, ev *billing.Event) error
}

type Webhook struct {
	ingest EventApplier
	secret string
	cache  cache.Store
}

func NewWebhook(ingest EventApplier, secret string, store cache.Store) *Webhook {
	return &Webhook{ingest: ingest, secret: secret, cache: store}
}

func (h *Webhook) Stripe(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		response.WriteError(w, http.StatusRequestEntityTooLarge, "webhook payload too large")
		return
	}

	ev, err := billing.ParseEvent(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			response.WriteError(w, http.StatusServiceUnavailable, "Stripe webhooks are not configured")
			return
		}
		log.Warn().Err(err).Msg("rejected stripe webhook")
		response.WriteError(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	if err := h.ingest.Apply(r.Context(), ev); err != nil {
		log.Error().Err(err).Str("event_id", ev.ID).Str("type", ev.Type).Msg("applying stripe webhook failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to process webhook")
		return
	}
	if ev.Customer != nil || ev.Subscription != nil {
		invalidate(r.Context(), h.cache)
	}
	response.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

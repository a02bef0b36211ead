package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/api/request"
	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/model"
)

const (
	callbackPath = "/api/v1/stripe/oauth/callback"

	// stateCookie binds the OAuth state to the browser that started the flow.
	stateCookie    = "stripe_oauth_state"
	stateCookieTTL = 10 * 60
)

// OAuthFlow is the Stripe Connect authorization flow.
type OAuthFlow interface {
	ClientID() string
	AuthorizeURL(state, redirectURI string) (string, error)
	Exchange(ctx context.Context, code string) (*model.Connection, error)
}

// ConnectionStore persists connected accounts.
type ConnectionStore interface {
	Upsert(ctx context.Context, conn *model.Connection) error
	List(ctx context.Context) ([]model.Connection, error)
}

// SyncStarter starts a billing sync workflow and returns its id.
type SyncStarter interface {
	Start(ctx context.Context, req model.SyncRequest) (string, error)
}

type StripeConfig struct {
	// RedirectURI overrides the callback URL derived from the request.
	RedirectURI string
	// DashboardURL is where the OAuth callback sends the browser.
	DashboardURL string
	// TrustForwardedProto takes the scheme from X-Forwarded-Proto when
	// deriving the callback URL.
	TrustForwardedProto bool
}

type Stripe struct {
	oauth       OAuthFlow
	connections ConnectionStore
	sync        SyncStarter
	cfg         StripeConfig
}

func NewStripe(oauth OAuthFlow, connections ConnectionStore, sync SyncStarter, cfg StripeConfig) *Stripe {
	if cfg.DashboardURL == "" {
		cfg.DashboardURL = "/dashboard"
	}
	return &Stripe{oauth: oauth, connections: connections, sync: sync, cfg: cfg}
}

func (h *Stripe) scheme(r *http.Request) string {
	if h.cfg.TrustForwardedProto {
		switch p := r.Header.Get("X-Forwarded-Proto"); p {
		case "http", "https":
			return p
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func (h *Stripe) redirectURI(r *http.Request) string {
	if h.cfg.RedirectURI != "" {
		return h.cfg.RedirectURI
	}
	return h.scheme(r) + "://" + r.Host + callbackPath
}

func (h *Stripe) setState(w http.ResponseWriter, r *http.Request, state string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     callbackPath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.scheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func validState(r *http.Request) bool {
	got := r.URL.Query().Get("state")
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(got)) == 1
}

func (h *Stripe) dashboard(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, h.cfg.DashboardURL+"?"+params.Encode(), http.StatusFound)
}

// Connect redirects the browser to the Stripe consent page. A ?state value
// is passed through; otherwise a random one is generated. The state is kept
// in a cookie scoped to the callback so Callback can check it.
func (h *Stripe) Connect(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = billing.NewState()
	}
	target, err := h.oauth.AuthorizeURL(state, h.redirectURI(r))
	if err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			response.WriteError(w, http.StatusInternalServerError, "Stripe client ID not configured")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("building stripe authorize url failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to start Stripe Connect")
		return
	}
	h.setState(w, r, state, stateCookieTTL)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Stripe) Config(w http.ResponseWriter, r *http.Request) {
	id := h.oauth.ClientID()
	if id == "" {
		response.WriteError(w, http.StatusInternalServerError, "Stripe client ID not configured")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"clientId": id})
}

// Callback finishes the OAuth flow, stores the connection, starts its first
// sync and sends the browser back to the dashboard.
func (h *Stripe) Callback(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		h.dashboard(w, r, url.Values{"error": {e}, "error_description": {q.Get("error_description")}})
		return
	}
	code := q.Get("code")
	if code == "" {
		h.dashboard(w, r, url.Values{"error": {"missing_code"}})
		return
	}
	if !validState(r) {
		log.Warn().Msg("stripe oauth callback with missing or mismatched state")
		h.dashboard(w, r, url.Values{"error": {"invalid_state"}, "error_description": {"Stripe authorization could not be verified"}})
		return
	}
	h.setState(w, r, "", -1)

	conn, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("stripe oauth exchange failed")
		h.dashboard(w, r, url.Values{"error": {"oauth_error"}, "error_description": {"Failed to connect Stripe account"}})
		return
	}
	if err := h.connections.Upsert(r.Context(), conn); err != nil {
		log.Error().Err(err).Str("account_id", conn.StripeAccountID).Msg("storing stripe connection failed")
		h.dashboard(w, r, url.Values{"error": {"storage_error"}, "error_description": {"Failed to save Stripe connection"}})
		return
	}

	id, err := h.sync.Start(r.Context(), model.SyncRequest{AccountID: conn.StripeAccountID, Scope: model.SyncScopeAll})
	if err != nil {
		log.Warn().Err(err).Str("account_id", conn.StripeAccountID).Msg("initial stripe sync not started")
	} else {
		log.Info().Str("account_id", conn.StripeAccountID).Str("workflow_id", id).Msg("stripe account connected")
	}
	h.dashboard(w, r, url.Values{"connected": {"true"}})
}

func (h *Stripe) Connections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.connections.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("listing stripe connections failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to fetch Stripe connections")
		return
	}
	if conns == nil {
		conns = []model.Connection{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

type syncStarted struct {
	WorkflowID string `json:"workflowId"`
}

// Sync starts a billing sync for one connected account.
func (h *Stripe) Sync(w http.ResponseWriter, r *http.Request) {
	var req request.Sync
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.sync.Start(r.Context(), model.SyncRequest{AccountID: req.StripeAccountID, Scope: req.Scope})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			response.WriteError(w, http.StatusNotFound, "Stripe connection not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("account_id", req.StripeAccountID).Msg("starting stripe sync failed")
		response.WriteError(w, http.StatusInternalServerError, "Failed to start Stripe sync")
		return
	}
	response.WriteJSON(w, http.StatusAccepted, syncStarted{WorkflowID: id})
}

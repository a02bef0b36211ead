package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/saaslens/internal/api/handler"
	mw "github.com/edvin/saaslens/internal/api/middleware"
	"github.com/edvin/saaslens/internal/api/response"
	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/cache"
	"github.com/edvin/saaslens/internal/config"
	"github.com/edvin/saaslens/internal/core"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the handlers are built from.
type Dependencies struct {
	DB       Pinger
	Temporal temporalclient.Client
	Services *core.Services
	// Assistant answers chat questions.
	Assistant handler.Asker
	// Cache defaults to cache.Noop.
	Cache cache.Store
}

type Server struct {
	router chi.Router
	logger zerolog.Logger
	deps   Dependencies
	cfg    *config.Config
}

func NewServer(logger zerolog.Logger, cfg *config.Config, deps Dependencies) *Server {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		deps:   deps,
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	svc := s.deps.Services
	connect := billing.NewConnect(billing.ConnectConfig{
		ClientID:  s.cfg.StripeClientID,
		SecretKey: s.cfg.StripeSecretKey,
	})
	ingestor := billing.NewIngestor(svc.Customers, svc.Products, svc.Subscriptions)

	s.router.Route("/api/v1", func(r chi.Router) {
		chat := handler.NewChat(s.deps.Assistant)
		r.Post("/chat", chat.Ask)
		r.Get("/chat/stream", chat.Stream)

		dashboard := handler.NewDashboard(svc.Metrics, s.deps.Cache, s.cfg.CacheTTL)
		r.Get("/dashboard", dashboard.Summary)
		r.Get("/visualizations", dashboard.Visualizations)

		records := handler.NewRecords(svc.Customers, svc.Products)
		r.Get("/customers", records.Customers)
		r.Get("/products", records.Products)

		metrics := handler.NewMetrics(svc.Metrics)
		r.Post("/metrics/generate", metrics.Generate)
		r.Get("/metrics/snapshots", metrics.Snapshots)

		testData := handler.NewTestData(svc.Seeder, s.deps.Cache)
		r.Post("/test-data", testData.Generate)

		stripe := handler.NewStripe(connect, svc.Connections, svc.Sync, handler.StripeConfig{
			RedirectURI:         s.cfg.StripeRedirectURI,
			DashboardURL:        s.cfg.DashboardURL,
			TrustForwardedProto: s.cfg.TrustProxyHeaders,
		})
		r.Get("/stripe/connect", stripe.Connect)
		r.Get("/stripe/connect/config", stripe.Config)
		r.Get("/stripe/oauth/callback", stripe.Callback)
		r.Get("/stripe/connections", stripe.Connections)
		r.Post("/stripe/sync", stripe.Sync)

		webhook := handler.NewWebhook(ingestor, s.cfg.StripeWebhookSecret, s.deps.Cache)
		r.Post("/webhooks/stripe", webhook.Stripe)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	check := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	check("database", s.deps.DB.Ping(ctx))
	if s.deps.Temporal != nil {
		_, err := s.deps.Temporal.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		check("temporal", err)
	}

	if !healthy {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": checks})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": checks})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

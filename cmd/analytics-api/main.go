package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/api"
	"github.com/edvin/saaslens/internal/assistant"
	"github.com/edvin/saaslens/internal/cache"
	"github.com/edvin/saaslens/internal/config"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/crypto"
	"github.com/edvin/saaslens/internal/db"
	"github.com/edvin/saaslens/internal/llm"
	"github.com/edvin/saaslens/internal/logging"
	"github.com/edvin/saaslens/internal/metrics"
)

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) >= 2 && os.Args[1] == "seed" {
		seed(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "analytics-api"
	}
	if err := cfg.Validate("analytics-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)
	zerolog.DefaultContextLogger = &logger

	if *migrateFlag {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.ServiceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPoolMetrics(pool)

	tc, err := dialTemporal(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	key, err := crypto.ParseKey(cfg.TokenEncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid TOKEN_ENCRYPTION_KEY")
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token sealer")
	}

	clock := analytics.SystemClock{}
	services := core.NewServices(pool, tc, sealer, clock, cfg.LTVLifetimeMonths)

	prompts := assistant.DefaultPrompts()
	if cfg.PromptsFile != "" {
		if prompts, err = assistant.LoadPrompts(cfg.PromptsFile); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.PromptsFile).Msg("failed to load prompts")
		}
	}
	catalog, err := assistant.NewCatalog(assistant.NewTools(services.Customers, services.Products, services.Subscriptions, clock, cfg.LTVLifetimeMonths))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid tool catalog")
	}
	orchestrator := assistant.NewOrchestrator(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel), catalog, prompts, cfg.ChatTimeout)

	var store cache.Store = cache.Noop{}
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL, "saaslens:")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info().Dur("ttl", cfg.CacheTTL).Msg("redis cache enabled")
	}

	srv := api.NewServer(logger, cfg, api.Dependencies{
		DB:        pool,
		Temporal:  tc,
		Services:  services,
		Assistant: orchestrator,
		Cache:     store,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting analytics API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func dialTemporal(cfg *config.Config, logger zerolog.Logger) (temporalclient.Client, error) {
	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		return nil, fmt.Errorf("configure temporal TLS: %w", err)
	}
	opts := temporalclient.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace}
	if tlsConfig != nil {
		opts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	return temporalclient.Dial(opts)
}

// seed writes one batch of demo customers without starting the server.
func seed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	seedValue := fs.Uint64("seed", 0, "Random seed (0 picks one)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "error: DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "saaslens-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	s := *seedValue
	if s == 0 {
		s = rand.Uint64()
	}
	seeder := core.NewSeeder(pool, func() time.Time { return time.Now().UTC() })
	res, err := seeder.Seed(ctx, rand.New(rand.NewPCG(s, s)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to generate test data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d customers (seed %d).\n\n", res.NewCustomers, s)
	fmt.Printf("  Customers:     %d\n", res.TotalCustomers)
	fmt.Printf("  Subscriptions: %d\n", res.TotalSubscriptions)
}

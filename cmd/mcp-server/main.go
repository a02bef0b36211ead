package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/assistant"
	"github.com/edvin/saaslens/internal/config"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/db"
	"github.com/edvin/saaslens/internal/logging"
	"github.com/edvin/saaslens/internal/mcpserver"
)

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	var (
		configPath = flag.String("config", "", "Path to mcp.yaml (defaults to MCP_CONFIG, then mcp.yaml)")
		addr       = flag.String("addr", ":8091", "Listen address")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "mcp-server"
	}
	if err := cfg.Validate("mcp-server"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg)

	path := *configPath
	if path == "" {
		path = cfg.MCPConfigPath
	}
	if path == "" {
		path = "mcp.yaml"
	}
	mcpCfg, err := mcpserver.LoadConfig(path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load MCP config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.ServiceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	tools := assistant.NewTools(
		core.NewCustomerService(pool),
		core.NewProductService(pool),
		core.NewSubscriptionService(pool),
		analytics.SystemClock{},
		cfg.LTVLifetimeMonths,
	)
	catalog, err := assistant.NewCatalog(tools)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid tool catalog")
	}

	srv, err := mcpserver.New(mcpCfg, catalog, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create MCP server")
	}

	if envAddr := os.Getenv("MCP_ADDR"); envAddr != "" {
		*addr = envAddr
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", *addr).Msg("MCP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}

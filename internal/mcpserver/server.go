package mcpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	mw "github.com/edvin/saaslens/internal/api/middleware"
)

// Server exposes the analytics tool catalog over MCP streamable HTTP at /mcp.
type Server struct {
	router chi.Router
	logger zerolog.Logger
	tools  []server.ServerTool
}

func New(cfg *Config, catalog Caller, logger zerolog.Logger) (*Server, error) {
	tools, err := BuildTools(cfg, catalog)
	if err != nil {
		return nil, err
	}

	mcpSrv := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithInstructions(cfg.Instructions),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	mcpSrv.AddTools(tools...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.RequestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Get("/tools", func(w http.ResponseWriter, _ *http.Request) {
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.Tool.Name)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"name": cfg.Name, "endpoint": "/mcp", "tools": names})
	})
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv, server.WithEndpointPath("/mcp")))

	logger.Info().Str("name", cfg.Name).Int("tools", len(tools)).Msg("mounted MCP endpoint at /mcp")

	return &Server{router: router, logger: logger, tools: tools}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

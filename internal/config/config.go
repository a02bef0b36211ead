package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName    string
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	CORSOrigins    []string
	// TrustProxyHeaders honours X-Forwarded-* and X-Real-IP. Enable only
	// behind a reverse proxy that sets them.
	TrustProxyHeaders bool

	TemporalAddress         string
	TemporalNamespace       string
	TemporalTLSCert         string
	TemporalTLSKey          string
	TemporalTLSCACert       string
	TemporalTLSServerName   string
	MetricsListenAddr       string
	SnapshotSchedule        string
	SyncActivityConcurrency int

	LLMBaseURL  string
	LLMAPIKey   string
	LLMModel    string
	ChatTimeout time.Duration
	PromptsFile string
	// LTVLifetimeMonths overrides the assumed customer lifetime used for LTV.
	LTVLifetimeMonths int

	StripeSecretKey     string
	StripeClientID      string
	StripeRedirectURI   string
	StripeWebhookSecret string
	DashboardURL        string
	// TokenEncryptionKey is a base64-encoded 32-byte key for connection tokens.
	TokenEncryptionKey string

	RedisURL string
	CacheTTL time.Duration

	MCPConfigPath string
}

// LoadEnvFiles copies variables from .env files into the process environment.
// Variables that are already set win, and missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	chatTimeout, err := getDuration("CHAT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	lifetime, err := getInt("LTV_LIFETIME_MONTHS", 12)
	if err != nil {
		return nil, err
	}
	syncConcurrency, err := getInt("SYNC_ACTIVITY_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	trustProxy, err := getBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName:    getEnv("SERVICE_NAME", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		TrustProxyHeaders: trustProxy,

		TemporalAddress:         getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:       getEnv("TEMPORAL_NAMESPACE", "default"),
		TemporalTLSCert:         getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:          getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:       getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName:   getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
		MetricsListenAddr:       getEnv("METRICS_LISTEN_ADDR", ":9090"),
		SnapshotSchedule:        getEnv("SNAPSHOT_SCHEDULE", "0 2 * * *"),
		SyncActivityConcurrency: syncConcurrency,

		LLMBaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o"),
		ChatTimeout:       chatTimeout,
		PromptsFile:       getEnv("PROMPTS_FILE", ""),
		LTVLifetimeMonths: lifetime,

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeClientID:      getEnv("STRIPE_CLIENT_ID", ""),
		StripeRedirectURI:   getEnv("STRIPE_REDIRECT_URI", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		DashboardURL:        getEnv("DASHBOARD_URL", "/dashboard"),
		TokenEncryptionKey:  getEnv("TOKEN_ENCRYPTION_KEY", ""),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: cacheTTL,

		MCPConfigPath: getEnv("MCP_CONFIG", ""),
	}

	return cfg, nil
}

// Validate checks the settings each binary needs before it starts.
func (c *Config) Validate(service string) error {
	var missing []string
	require := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch service {
	case "analytics-api":
		require(c.DatabaseURL, "DATABASE_URL")
		require(c.HTTPListenAddr, "HTTP_LISTEN_ADDR")
		require(c.TemporalAddress, "TEMPORAL_ADDRESS")
		require(c.LLMAPIKey, "LLM_API_KEY")
		require(c.TokenEncryptionKey, "TOKEN_ENCRYPTION_KEY")
	case "worker":
		require(c.DatabaseURL, "DATABASE_URL")
		require(c.TemporalAddress, "TEMPORAL_ADDRESS")
		require(c.TokenEncryptionKey, "TOKEN_ENCRYPTION_KEY")
	case "mcp-server":
		require(c.DatabaseURL, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set")
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be positive")
	}
	if c.LTVLifetimeMonths <= 0 {
		return fmt.Errorf("LTV_LIFETIME_MONTHS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

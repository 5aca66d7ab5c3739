package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	CORSOrigins   []string
	LogLevel      string
	LogFormat     string
	// AdminUsernames are granted the admin role when they register.
	AdminUsernames []string
	// AuthRatePerMinute throttles /register and /login per client; 0 disables.
	AuthRatePerMinute int
	AuthRateBurst     int
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// friends. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	Approvals         ApprovalConfig
}

// ApprovalConfig bounds the pending-approvals summary.
type ApprovalConfig struct {
	MaxProjects      int
	MaxVolunteers    int
	MaxResults       int
	FetchTimeout     time.Duration
	FetchConcurrency int
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              fallback(os.Getenv("PORT"), "8080"),
		StorageDriver:     strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:         fallback(os.Getenv("JWT_ISSUER"), "volunteer-hours"),
		JWTTTL:            time.Duration(positiveInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		CORSOrigins:       parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:          strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:         strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "text")),
		AdminUsernames:    splitList(os.Getenv("ADMIN_USERNAMES")),
		AuthRatePerMinute: nonNegativeInt("AUTH_RATE_PER_MINUTE", 30),
		AuthRateBurst:     positiveInt("AUTH_RATE_BURST", 10),
		TrustProxyHeaders: boolean("TRUST_PROXY_HEADERS", false),
		Approvals: ApprovalConfig{
			MaxProjects:      positiveInt("APPROVAL_MAX_PROJECTS", 5),
			MaxVolunteers:    positiveInt("APPROVAL_MAX_VOLUNTEERS", 15),
			MaxResults:       positiveInt("APPROVAL_MAX_RESULTS", 5),
			FetchTimeout:     time.Duration(positiveInt("APPROVAL_FETCH_TIMEOUT_MS", 5000)) * time.Millisecond,
			FetchConcurrency: positiveInt("APPROVAL_FETCH_CONCURRENCY", 8),
		},
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

// positiveInt reads key as an integer, keeping def when unset, malformed or not positive.
func positiveInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// nonNegativeInt is positiveInt but keeps an explicit zero.
func nonNegativeInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func boolean(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}

func splitList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseCSV(input string) []string {
	out := splitList(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

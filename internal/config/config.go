package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the gateway.
type Config struct {
	BindAddr         string
	AuthKey          string
	ShutdownTimeout  time.Duration
	PendingTTL       time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	BackendMode string
	SimBots     []int64

	DatabaseURL string
	UploadDir   string
}

// Load reads environment variables and applies safe defaults. AUTH_KEY has
// no default: the gateway refuses to start without a shared secret.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		AuthKey:          trimSpace(os.Getenv("AUTH_KEY")),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "botgate"),
		AllowAnyOrigin:   false,
		BackendMode:      envOrDefault("BACKEND_MODE", "sim"),
		DatabaseURL:      trimSpace(os.Getenv("DATABASE_URL")),
		UploadDir:        trimSpace(os.Getenv("APP_UPLOAD_DIR")),
		ShutdownTimeout:  15 * time.Second,
		PendingTTL:       5 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PendingTTL, err = durationFromEnv("APP_SESSION_PENDING_TTL", cfg.PendingTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.SimBots, err = int64ListFromEnv("SIM_BOTS", []int64{100})
	if err != nil {
		return Config{}, err
	}

	if cfg.AuthKey == "" {
		return Config{}, fmt.Errorf("AUTH_KEY is required")
	}
	if len(cfg.AuthKey) < 8 || len(cfg.AuthKey) > 128 {
		return Config{}, fmt.Errorf("AUTH_KEY must be 8..128 characters")
	}
	if cfg.PendingTTL < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_PENDING_TTL must be at least 5s")
	}
	switch cfg.BackendMode {
	case "sim":
	default:
		return Config{}, fmt.Errorf("invalid BACKEND_MODE: %q (expected sim)", cfg.BackendMode)
	}
	if len(cfg.SimBots) == 0 {
		return Config{}, fmt.Errorf("SIM_BOTS must list at least one bot id")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimSpace(v string) string {
	return strings.TrimSpace(v)
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

func int64ListFromEnv(key string, fallback []int64) ([]int64, error) {
	v := trimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s parse error: %w", key, err)
		}
		out = append(out, n)
	}
	return out, nil
}

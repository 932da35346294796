// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// MemoryDSN selects the in-memory definition store.
const MemoryDSN = "memory"

// Config captures server level configuration.
type Config struct {
	Port               int
	DatabaseURL        string
	Definitions        string // directory of definitions loaded at start-up
	SessionMaxAge      time.Duration
	SessionIdleTimeout time.Duration
	ActivityCapacity   int // journal entries kept in memory, 0 for unbounded
	LogLevel           slog.Level
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:               8080,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Definitions:        os.Getenv("FORMVIS_DEFINITIONS"),
		SessionMaxAge:      24 * time.Hour,
		SessionIdleTimeout: 30 * time.Minute,
		ActivityCapacity:   10000,
		LogLevel:           slog.LevelInfo,
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "file:formvis.db?_pragma=foreign_keys(1)"
	}

	if p := os.Getenv("PORT"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil || v <= 0 || v > 65535 {
			return cfg, fmt.Errorf("PORT: invalid port %q", p)
		}
		cfg.Port = v
	}
	if err := duration("SESSION_MAX_AGE", &cfg.SessionMaxAge); err != nil {
		return cfg, err
	}
	if err := duration("SESSION_IDLE_TIMEOUT", &cfg.SessionIdleTimeout); err != nil {
		return cfg, err
	}
	if c := os.Getenv("ACTIVITY_CAPACITY"); c != "" {
		v, err := strconv.Atoi(c)
		if err != nil || v < 0 {
			return cfg, fmt.Errorf("ACTIVITY_CAPACITY: invalid capacity %q", c)
		}
		cfg.ActivityCapacity = v
	}
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(l)); err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	return cfg, nil
}

func duration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

// UseMemoryStore reports whether definitions are kept in memory only.
func (c Config) UseMemoryStore() bool { return c.DatabaseURL == MemoryDSN }

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

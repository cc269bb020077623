// Package config loads service settings from the environment and pipeline
// tuning from JSON files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// DefaultAllowedOrigins are the browser origins accepted when
// ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://localhost:5173",
	"https://*.vercel.app",
}

// Config holds service settings.
type Config struct {
	Port           string
	InferenceURL   string
	ModelPath      string
	TuningPath     string // optional pipeline tuning file
	DebugDir       string // optional root for per-request stage images
	LogLevel       slog.Level
	AllowedOrigins []string
}

// Load reads settings from the environment, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "5001"),
		InferenceURL:   getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		ModelPath:      getEnv("MODEL_PATH", "best.pt"),
		TuningPath:     os.Getenv("TUNING_PATH"),
		DebugDir:       os.Getenv("DEBUG_DIR"),
		AllowedOrigins: DefaultAllowedOrigins,
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

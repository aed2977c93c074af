// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	ResourceURL  string

	ListenAddr    string
	RefreshMargin time.Duration
	HTTPTimeout   time.Duration
	QueryTop      int
}

// Load reads configuration from environment variables and returns a validated
// Config. DYNABRIDGE_TENANT_ID, DYNABRIDGE_CLIENT_ID, DYNABRIDGE_CLIENT_SECRET,
// and DYNABRIDGE_RESOURCE_URL are required; the process cannot reach the data
// service without them. Optional variables with defaults:
// DYNABRIDGE_LISTEN_ADDR (127.0.0.1:8080), DYNABRIDGE_REFRESH_MARGIN (5m),
// DYNABRIDGE_HTTP_TIMEOUT (30s), DYNABRIDGE_QUERY_TOP (100).
func Load() (*Config, error) {
	cfg := &Config{
		TenantID:      os.Getenv("DYNABRIDGE_TENANT_ID"),
		ClientID:      os.Getenv("DYNABRIDGE_CLIENT_ID"),
		ClientSecret:  os.Getenv("DYNABRIDGE_CLIENT_SECRET"),
		ResourceURL:   os.Getenv("DYNABRIDGE_RESOURCE_URL"),
		ListenAddr:    "127.0.0.1:8080",
		RefreshMargin: 5 * time.Minute,
		HTTPTimeout:   30 * time.Second,
		QueryTop:      100,
	}

	for _, required := range []struct {
		key, value string
	}{
		{"DYNABRIDGE_TENANT_ID", cfg.TenantID},
		{"DYNABRIDGE_CLIENT_ID", cfg.ClientID},
		{"DYNABRIDGE_CLIENT_SECRET", cfg.ClientSecret},
		{"DYNABRIDGE_RESOURCE_URL", cfg.ResourceURL},
	} {
		if required.value == "" {
			return nil, fmt.Errorf("%s is required", required.key)
		}
	}

	if v, ok := os.LookupEnv("DYNABRIDGE_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("DYNABRIDGE_REFRESH_MARGIN"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DYNABRIDGE_REFRESH_MARGIN has invalid duration %q: %w", v, err)
		}
		cfg.RefreshMargin = parsed
	}

	if v, ok := os.LookupEnv("DYNABRIDGE_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DYNABRIDGE_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.HTTPTimeout = parsed
	}

	if v, ok := os.LookupEnv("DYNABRIDGE_QUERY_TOP"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("DYNABRIDGE_QUERY_TOP has invalid value %q", v)
		}
		cfg.QueryTop = parsed
	}

	return cfg, nil
}

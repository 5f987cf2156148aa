// Package config centralises runtime configuration helpers for Commodex services.
package config

import (
	"os"
	"strings"
	"time"
)

// Environment identifies the runtime environment where Commodex operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// BackendSettings aggregates transport configuration for the crawler backend.
type BackendSettings struct {
	BaseURL         string
	DataEndpoint    string
	HistoryEndpoint string
	SourcesEndpoint string
	RateEndpoint    string
	HTTPTimeout     time.Duration
}

// RefreshSettings controls the polling cadence and history window.
type RefreshSettings struct {
	PollInterval   time.Duration
	HistoryDays    int
	TargetCurrency string
}

// TelemetrySettings configures the OTLP exporter; an empty endpoint disables export.
type TelemetrySettings struct {
	OTLPEndpoint string
	ServiceName  string
}

// Settings contains the Commodex configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment  Environment
	Backend      BackendSettings
	Refresh      RefreshSettings
	Telemetry    TelemetrySettings
	SnapshotPath string
}

// Default returns the default Commodex configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Backend: BackendSettings{
			BaseURL:         "http://localhost:8090",
			DataEndpoint:    "/api/data",
			HistoryEndpoint: "/api/price-history",
			SourcesEndpoint: "/api/data-sources",
			RateEndpoint:    "/api/exchange-rate",
			HTTPTimeout:     10 * time.Second,
		},
		Refresh: RefreshSettings{
			PollInterval:   30 * time.Second,
			HistoryDays:    30,
			TargetCurrency: "CNY",
		},
		Telemetry: TelemetrySettings{
			OTLPEndpoint: "",
			ServiceName:  "commodex",
		},
		SnapshotPath: "",
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if env := strings.TrimSpace(os.Getenv("COMMODEX_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("COMMODEX_BACKEND_URL")); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("COMMODEX_HTTP_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Backend.HTTPTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("COMMODEX_POLL_INTERVAL")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Refresh.PollInterval = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("COMMODEX_TARGET_CURRENCY")); v != "" {
		cfg.Refresh.TargetCurrency = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(os.Getenv("COMMODEX_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("COMMODEX_SNAPSHOT_PATH")); v != "" {
		cfg.SnapshotPath = v
	}
	return cfg
}

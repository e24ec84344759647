package commands

import (
	"fmt"
	"hoyocodes-backend/internal/aggregate"
	"hoyocodes-backend/internal/alert"
	"hoyocodes-backend/internal/catalog"
	"hoyocodes-backend/internal/extract"
	"hoyocodes-backend/internal/fetcher"
	"hoyocodes-backend/internal/redeem"
	"hoyocodes-backend/internal/service"
	"hoyocodes-backend/internal/verify"
	"hoyocodes-backend/lib/configutil"
	libtelemetry "hoyocodes-backend/lib/telemetry"
)

const (
	credentialsSQL  = "sql"
	credentialsFile = "file"
)

type CredentialsConfig struct {
	// Store is either "sql", the catalog database, or "file", a json file of
	// game to cookie string.
	Store string `json:"store"`
	File  string `json:"file"`
}

type Config struct {
	Database    catalog.Config    `json:"database"`
	Credentials CredentialsConfig `json:"credentials"`
	// Sources is a source registry yaml file, the embedded registry is used when empty.
	Sources   string           `json:"sources"`
	Fetcher   fetcher.Config   `json:"fetcher"`
	Wiki      extract.Options  `json:"wiki"`
	Aggregate aggregate.Config `json:"aggregate"`
	Redeem    redeem.Config    `json:"redeem"`
	Verifier  verify.Config    `json:"verifier"`
	Service   service.Config   `json:"service"`
	Alerts    alert.Config     `json:"alerts"`
	Telemetry struct {
		libtelemetry.Config
		// PerfStatsSeconds is the interval process gauges are recorded at, 0 disables them.
		PerfStatsSeconds int `json:"perf_stats_seconds"`
	} `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		Database: catalog.DefaultConfig(),
		Credentials: CredentialsConfig{
			Store: credentialsSQL,
			File:  "cookies.json",
		},
		Fetcher:   fetcher.DefaultConfig(),
		Wiki:      extract.DefaultOptions(),
		Aggregate: aggregate.DefaultConfig(),
		Redeem:    redeem.DefaultConfig(),
		Verifier:  verify.DefaultConfig(),
		Service:   service.DefaultConfig(),
	}
}

func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, defaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	switch cfg.Credentials.Store {
	case credentialsSQL, credentialsFile:
	default:
		return Config{}, fmt.Errorf("unknown credential store %q", cfg.Credentials.Store)
	}
	return cfg, nil
}

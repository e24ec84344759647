package commands

import (
	"context"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/aggregate"
	"hoyocodes-backend/internal/alert"
	"hoyocodes-backend/internal/catalog"
	"hoyocodes-backend/internal/components/chrono"
	"hoyocodes-backend/internal/components/telemetry"
	"hoyocodes-backend/internal/fetcher"
	"hoyocodes-backend/internal/redeem"
	"hoyocodes-backend/internal/service"
	"hoyocodes-backend/internal/sources"
	"hoyocodes-backend/internal/verify"
	libtelemetry "hoyocodes-backend/lib/telemetry"
	"log/slog"
	"time"
)

// app is every component of a command invocation wired from one Config.
type app struct {
	config      Config
	db          *catalog.DB
	store       catalog.Store
	credentials verify.CredentialStore
	registry    sources.Registry
	service     service.Service
	otel        libtelemetry.Telemetry
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	otel, err := libtelemetry.Setup(ctx, "hoyocodes", cfg.Telemetry.Config)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	if cfg.Telemetry.PerfStatsSeconds > 0 {
		libtelemetry.InstrumentPerfStats(ctx, time.Second*time.Duration(cfg.Telemetry.PerfStatsSeconds))
	}

	db, err := catalog.Open(ctx, cfg.Database)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open catalog: %w", err), otel.Shutdown(ctx))
	}

	a, err := wire(cfg, db)
	if err != nil {
		return nil, errors.Join(err, db.Close(), otel.Shutdown(ctx))
	}
	a.otel = otel
	return a, nil
}

func wire(cfg Config, db *catalog.DB) (*app, error) {
	tel := telemetry.SlogAPI{}
	clock := chrono.NewStandardImpl()

	registry, err := sources.Load(cfg.Sources)
	if err != nil {
		return nil, err
	}

	var credentials verify.CredentialStore
	switch cfg.Credentials.Store {
	case credentialsFile:
		credentials = catalog.NewFileCredentialStore(cfg.Credentials.File)
	default:
		credentials = catalog.NewCredentialStore(db, clock)
	}

	pages, err := fetcher.New(cfg.Fetcher, tel)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	redeemer, err := redeem.NewClient(cfg.Redeem, tel)
	if err != nil {
		return nil, fmt.Errorf("create redeem client: %w", err)
	}

	store := catalog.NewStore(db, clock)
	alerts := alert.New(cfg.Alerts, slog.Default(), tel)
	aggregator := aggregate.New(registry, pages, alerts, cfg.Wiki, cfg.Aggregate, tel)
	verifier := verify.New(redeemer, credentials, store, clock, cfg.Verifier, tel)

	return &app{
		config:      cfg,
		db:          db,
		store:       store,
		credentials: credentials,
		registry:    registry,
		service: service.New(
			store, aggregator, verifier, cfg.Service,
			service.WithClock(clock),
			service.WithTelemetry(tel),
		),
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	err := errors.Join(a.db.Close(), a.otel.Shutdown(ctx))
	if err != nil {
		slog.Warn("failed to close", "err", err)
	}
}

// Package service runs the ingest and reverify workflows over the code catalog and
// serves the single-code operations used by the CLI.
package service

import (
	"context"
	"errors"
	"hoyocodes-backend/internal/aggregate"
	"hoyocodes-backend/internal/catalog"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/assert"
	"hoyocodes-backend/internal/components/chrono"
	"hoyocodes-backend/internal/components/telemetry"
	"hoyocodes-backend/internal/verify"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/service")

const (
	report_service_ingest_code     = "service.ingest-code"
	report_service_reverify_code   = "service.reverify-code"
	report_service_ingest_created  = "service.ingest-created"
	report_service_ingest_failed   = "service.ingest-failed"
	report_service_reverify_change = "service.reverify-changed"
	report_service_reverify_failed = "service.reverify-failed"
)

// ErrInvalidCode is returned when a code is empty after sanitization.
var ErrInvalidCode = errors.New("invalid code")

// Catalog is the persistent set of codes, see catalog.Store.
//
// note: fault injection point
type Catalog interface {
	Upsert(ctx context.Context, game codes.Game, code codes.Code, status codes.Status, rewards string) (int64, error)
	Create(ctx context.Context, game codes.Game, code codes.Code, status codes.Status, rewards string) (int64, error)
	FindByGameAndCode(ctx context.Context, game codes.Game, code codes.Code) (codes.Entry, error)
	FindAllByStatus(ctx context.Context, status codes.Status) ([]codes.Entry, error)
	List(ctx context.Context, game codes.Game, status *codes.Status) ([]codes.Entry, error)
	Update(ctx context.Context, id int64, params catalog.UpdateParams) error
	Delete(ctx context.Context, id int64) error
}

// Aggregator produces the deduplicated candidates of every game.
type Aggregator interface {
	// Games returns the games AggregateAll covers, in processing order.
	Games() []codes.Game
	AggregateAll(ctx context.Context) (map[codes.Game][]aggregate.Candidate, error)
}

// Verifier is implemented by verify.Verifier.
type Verifier interface {
	// VerifyNew verifies a code before it is cataloged.
	VerifyNew(ctx context.Context, code codes.Code, game codes.Game) (verify.Result, error)
	// Verify verifies a cataloged code again.
	Verify(ctx context.Context, code codes.Code, game codes.Game) (verify.Result, error)
}

type Config struct {
	// ClaimDelaySeconds is the pause after every verification that reached the
	// redemption service.
	ClaimDelaySeconds int `json:"claim_delay_seconds"`
}

func DefaultConfig() Config {
	return Config{ClaimDelaySeconds: 10}
}

type Service struct {
	catalog    Catalog
	aggregator Aggregator
	verifier   Verifier
	clock      chrono.API
	claimDelay time.Duration
	tel        telemetry.API
}

type serviceOptions struct {
	clock chrono.API
	tel   telemetry.API
}

type Option func(opts *serviceOptions)

func WithClock(clock chrono.API) Option {
	return func(opts *serviceOptions) {
		opts.clock = clock
	}
}

func WithTelemetry(tel telemetry.API) Option {
	return func(opts *serviceOptions) {
		opts.tel = tel
	}
}

func New(catalog Catalog, aggregator Aggregator, verifier Verifier, cfg Config, options ...Option) Service {
	assert.NotNil(catalog)
	assert.NotNil(aggregator)
	assert.NotNil(verifier)

	opts := serviceOptions{
		clock: chrono.NewStandardImpl(),
		tel:   telemetry.SlogAPI{},
	}
	for _, opt := range options {
		opt(&opts)
	}

	claimDelay := cfg.ClaimDelaySeconds
	if claimDelay < 0 {
		claimDelay = 0
	}

	return Service{
		catalog:    catalog,
		aggregator: aggregator,
		verifier:   verifier,
		clock:      opts.clock,
		claimDelay: time.Second * time.Duration(claimDelay),
		tel:        telemetry.NewScopedAPI("service", opts.tel),
	}
}

// pace waits the claim delay when the verification reached the redemption service.
func (s Service) pace(ctx context.Context, result verify.Result) error {
	if !result.Claimed || s.claimDelay == 0 {
		return nil
	}
	return s.clock.Sleep(ctx, s.claimDelay)
}

// aborts reports whether err ends the current run instead of failing a single code.
func aborts(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var fatal *verify.FatalError
	return errors.As(err, &fatal)
}

// ListCodes returns the codes of game ordered by id, optionally filtered by status.
func (s Service) ListCodes(ctx context.Context, game codes.Game, status *codes.Status) ([]codes.Entry, error) {
	return s.catalog.List(ctx, game, status)
}

// CreateCode sanitizes, verifies and catalogs a single code.
func (s Service) CreateCode(ctx context.Context, game codes.Game, raw, rewards string) (codes.Entry, error) {
	ctx, span := tracer.Start(ctx, "CreateCode")
	defer span.End()

	code := codes.Sanitize(raw)
	if code == "" {
		return codes.Entry{}, ErrInvalidCode
	}

	_, err := s.catalog.FindByGameAndCode(ctx, game, code)
	if err == nil {
		return codes.Entry{}, catalog.ErrDuplicate
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return codes.Entry{}, err
	}

	result, err := s.verifier.VerifyNew(ctx, code, game)
	if err != nil {
		span.RecordError(err)
		return codes.Entry{}, err
	}
	_, err = s.catalog.Create(ctx, game, code, result.Status, rewards)
	if err != nil {
		return codes.Entry{}, err
	}
	return s.catalog.FindByGameAndCode(ctx, game, code)
}

func (s Service) DeleteCode(ctx context.Context, id int64) error {
	return s.catalog.Delete(ctx, id)
}

// Package aggregate collects the codes of every source of a game and merges them into one
// deduplicated candidate list.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/alert"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/telemetry"
	"hoyocodes-backend/internal/extract"
	"hoyocodes-backend/internal/fetcher"
	"hoyocodes-backend/internal/sources"

	"golang.org/x/sync/errgroup"
)

const (
	report_aggregator_fetch_source   = "aggregator.fetch-source"
	report_aggregator_extract_source = "aggregator.extract-source"
	report_aggregator_empty_source   = "aggregator.empty-source"
	report_aggregator_source_codes   = "aggregator.source-codes"
	report_aggregator_candidates     = "aggregator.candidates"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Config struct {
	// Concurrency bounds the number of sources of one game fetched at the same time.
	Concurrency int `json:"concurrency"`
	// FlakySources never raise an alert when they yield no codes.
	FlakySources []codes.Source `json:"flaky_sources"`
}

func DefaultConfig() Config {
	return Config{
		Concurrency:  4,
		FlakySources: []codes.Source{codes.SourceHoyolab},
	}
}

// Candidate is a deduplicated code found for a game.
type Candidate struct {
	Code    codes.Code
	Rewards string
}

type Aggregator struct {
	registry    sources.Registry
	fetcher     Fetcher
	alerts      alert.Sink
	extractOpts extract.Options
	flaky       map[codes.Source]bool
	concurrency int
	tel         telemetry.API
}

func New(
	registry sources.Registry,
	fetcher Fetcher,
	alerts alert.Sink,
	extractOpts extract.Options,
	cfg Config,
	tel telemetry.API,
) *Aggregator {
	flaky := make(map[codes.Source]bool, len(cfg.FlakySources))
	for _, s := range cfg.FlakySources {
		flaky[s] = true
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Aggregator{
		registry:    registry,
		fetcher:     fetcher,
		alerts:      alerts,
		extractOpts: extractOpts,
		flaky:       flaky,
		concurrency: concurrency,
		tel:         telemetry.NewScopedAPI("aggregate", tel),
	}
}

// Games returns the games known to the registry in declaration order.
func (a *Aggregator) Games() []codes.Game {
	return a.registry.Games()
}

// Aggregate fetches and extracts every source of game, merging the results in registry
// order. Codes are keyed by their sanitized form, the first non-empty reward text wins.
// A failing source is reported and skipped, only context cancellation is returned.
func (a *Aggregator) Aggregate(ctx context.Context, game codes.Game) ([]Candidate, error) {
	list, err := a.registry.Enumerate(game)
	if err != nil {
		return nil, err
	}

	results := make([][]codes.RawCode, len(list))
	group := errgroup.Group{}
	group.SetLimit(a.concurrency)
	for i, src := range list {
		group.Go(func() error {
			results[i] = a.collect(ctx, game, src)
			return nil
		})
	}
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := merge(results)
	a.tel.ReportCount(fmt.Sprintf("%s.%s", report_aggregator_candidates, game), int64(len(candidates)))
	return candidates, nil
}

// AggregateAll runs Aggregate for every game of the registry.
func (a *Aggregator) AggregateAll(ctx context.Context) (map[codes.Game][]Candidate, error) {
	out := make(map[codes.Game][]Candidate)
	for _, game := range a.registry.Games() {
		candidates, err := a.Aggregate(ctx, game)
		if err != nil {
			return nil, err
		}
		out[game] = candidates
	}
	return out, nil
}

func (a *Aggregator) collect(ctx context.Context, game codes.Game, src sources.SourceURL) []codes.RawCode {
	content, err := a.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		a.tel.ReportWarning(report_aggregator_fetch_source, err, game, src.Source, src.URL)

		// a status code means the site answered and refused, as soft blocks do
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 && !a.flaky[src.Source] {
			a.alerts.Notify(ctx, fmt.Sprintf(
				"%s answered %d for %s (%s), the source may be blocking requests",
				src.Source, fetchErr.StatusCode, game, src.URL,
			))
		}
		return nil
	}

	raw, err := extract.Extract(src.Source, content, a.extractOpts)
	if err != nil {
		var extractErr *extract.ExtractionError
		if errors.As(err, &extractErr) {
			a.tel.ReportWarning(report_aggregator_extract_source, err, game, src.URL)
		} else {
			a.tel.ReportBroken(report_aggregator_extract_source, err, game, src.URL)
		}
	}

	a.tel.ReportCount(fmt.Sprintf("%s.%s.%s", report_aggregator_source_codes, game, src.Source), int64(len(raw)))
	if len(raw) == 0 && !a.flaky[src.Source] {
		a.tel.ReportWarning(report_aggregator_empty_source, game, src.Source, src.URL)
		a.alerts.Notify(ctx, fmt.Sprintf(
			"%s returned no codes for %s (%s), the page layout may have changed",
			src.Source, game, src.URL,
		))
	}
	return raw
}

func merge(results [][]codes.RawCode) []Candidate {
	var out []Candidate
	index := make(map[codes.Code]int)
	for _, raw := range results {
		for _, r := range raw {
			code := codes.Sanitize(r.Code)
			if code == "" {
				continue
			}
			i, seen := index[code]
			if !seen {
				index[code] = len(out)
				out = append(out, Candidate{Code: code, Rewards: r.Rewards})
				continue
			}
			if out[i].Rewards == "" {
				out[i].Rewards = r.Rewards
			}
		}
	}
	return out
}

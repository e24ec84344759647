package service

import (
	"context"
	"errors"
	"hoyocodes-backend/internal/aggregate"
	"hoyocodes-backend/internal/catalog"
	"hoyocodes-backend/internal/codes"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IngestReport struct {
	RunID      string
	Candidates int
	// Created counts codes verified and added to the catalog.
	Created int
	// Backfilled counts cataloged codes whose empty rewards were filled in.
	Backfilled int
	Skipped    int
	Failed     int
}

// Ingest aggregates every source of every game and catalogs the new codes.
//
// A code that fails is reported and counted, the run continues with the next one. A
// *verify.FatalError stops the run and is returned with the report so far.
func (s Service) Ingest(ctx context.Context) (IngestReport, error) {
	report := IngestReport{RunID: uuid.NewString()}
	ctx, span := tracer.Start(ctx, "Ingest", trace.WithAttributes(
		attribute.String("custom.run_id", report.RunID),
	))
	defer span.End()

	s.tel.ReportDebug("ingest started", report.RunID)

	all, err := s.aggregator.AggregateAll(ctx)
	if err != nil {
		span.SetStatus(otelcodes.Error, "failed to aggregate")
		return report, err
	}

	defer func() {
		s.tel.ReportCount(report_service_ingest_created, int64(report.Created))
		s.tel.ReportCount(report_service_ingest_failed, int64(report.Failed))
	}()

	for _, game := range s.aggregator.Games() {
		for _, candidate := range all[game] {
			report.Candidates++
			err := s.ingestCandidate(ctx, game, candidate, &report)
			if err == nil {
				continue
			}
			if aborts(ctx, err) {
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, "ingest aborted")
				return report, err
			}
			report.Failed++
			s.tel.ReportBroken(report_service_ingest_code, err, report.RunID, game, candidate.Code)
		}
	}

	s.tel.ReportDebug(
		"ingest finished",
		report.RunID,
		"created", report.Created,
		"backfilled", report.Backfilled,
		"failed", report.Failed,
	)
	return report, nil
}

func (s Service) ingestCandidate(ctx context.Context, game codes.Game, candidate aggregate.Candidate, report *IngestReport) error {
	entry, err := s.catalog.FindByGameAndCode(ctx, game, candidate.Code)
	if err == nil {
		if entry.Rewards != "" || candidate.Rewards == "" {
			report.Skipped++
			return nil
		}
		rewards := candidate.Rewards
		err = s.catalog.Update(ctx, entry.ID, catalog.UpdateParams{Rewards: &rewards})
		if err != nil {
			return err
		}
		report.Backfilled++
		return nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	result, err := s.verifier.VerifyNew(ctx, candidate.Code, game)
	if err != nil {
		return err
	}
	_, err = s.catalog.Upsert(ctx, game, candidate.Code, result.Status, candidate.Rewards)
	if err != nil {
		return err
	}
	report.Created++
	s.tel.ReportDebug("cataloged code", report.RunID, game, candidate.Code, result.Status)

	return s.pace(ctx, result)
}

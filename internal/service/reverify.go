package service

import (
	"context"
	"hoyocodes-backend/internal/catalog"
	"hoyocodes-backend/internal/codes"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ReverifyReport struct {
	RunID   string
	Checked int
	// Changed counts codes whose status was updated.
	Changed int
	Failed  int
}

// Reverify verifies every OK code again and persists status changes, with the same
// pacing and failure handling as Ingest.
func (s Service) Reverify(ctx context.Context) (ReverifyReport, error) {
	report := ReverifyReport{RunID: uuid.NewString()}
	ctx, span := tracer.Start(ctx, "Reverify", trace.WithAttributes(
		attribute.String("custom.run_id", report.RunID),
	))
	defer span.End()

	entries, err := s.catalog.FindAllByStatus(ctx, codes.StatusOK)
	if err != nil {
		span.SetStatus(otelcodes.Error, "failed to list codes")
		return report, err
	}

	defer func() {
		s.tel.ReportCount(report_service_reverify_change, int64(report.Changed))
		s.tel.ReportCount(report_service_reverify_failed, int64(report.Failed))
	}()

	for _, entry := range entries {
		report.Checked++
		err := s.reverifyEntry(ctx, entry, &report)
		if err == nil {
			continue
		}
		if aborts(ctx, err) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, "reverify aborted")
			return report, err
		}
		report.Failed++
		s.tel.ReportBroken(report_service_reverify_code, err, report.RunID, entry.Game, entry.Code)
	}
	return report, nil
}

func (s Service) reverifyEntry(ctx context.Context, entry codes.Entry, report *ReverifyReport) error {
	result, err := s.verifier.Verify(ctx, entry.Code, entry.Game)
	if err != nil {
		return err
	}
	if result.Status != entry.Status {
		status := result.Status
		err = s.catalog.Update(ctx, entry.ID, catalog.UpdateParams{Status: &status})
		if err != nil {
			return err
		}
		report.Changed++
		s.tel.ReportDebug("status changed", report.RunID, entry.Game, entry.Code, status)
	}
	return s.pace(ctx, result)
}

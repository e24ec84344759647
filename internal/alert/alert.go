// Package alert delivers operator notifications about anomalies, like a source that suddenly
// yields no codes. Delivery is best-effort, a sink never returns an error to its caller.
package alert

import (
	"context"
	"log/slog"
)

type Sink interface {
	Notify(ctx context.Context, message string)
}

// SlogSink writes alerts to a logger at warning level.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Notify(ctx context.Context, message string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "alert", "message", message)
}

// Multi sends every alert to all of its sinks in order.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, message string) {
	for _, sink := range m {
		sink.Notify(ctx, message)
	}
}

// Discard drops every alert.
type Discard struct{}

func (Discard) Notify(context.Context, string) {}

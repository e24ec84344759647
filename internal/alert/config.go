package alert

import (
	"hoyocodes-backend/internal/components/telemetry"
	"log/slog"
)

// Config selects the sinks alerts are delivered to, the log sink is always on.
type Config struct {
	Webhook *WebhookConfig `json:"webhook"`
	Email   *EmailConfig   `json:"email"`
}

func New(cfg Config, logger *slog.Logger, tel telemetry.API) Sink {
	sinks := Multi{SlogSink{Logger: logger}}
	if cfg.Webhook != nil && cfg.Webhook.URL != "" {
		sinks = append(sinks, NewWebhookSink(*cfg.Webhook, tel))
	}
	if cfg.Email != nil && cfg.Email.Server != "" && len(cfg.Email.To) > 0 {
		sinks = append(sinks, NewEmailSink(*cfg.Email, tel))
	}
	return sinks
}

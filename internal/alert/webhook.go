package alert

import (
	"context"
	"fmt"
	"hoyocodes-backend/internal/components/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
)

const report_webhook_notify = "webhook.notify"

type WebhookConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// WebhookSink posts alerts to a chat webhook as {"content": message}, the payload
// Discord and compatible services accept.
type WebhookSink struct {
	url  string
	http *resty.Client
	tel  telemetry.API
}

type webhookPayload struct {
	Content string `json:"content"`
}

func NewWebhookSink(cfg WebhookConfig, tel telemetry.API) WebhookSink {
	tel = telemetry.NewScopedAPI("alert", tel)

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	client := resty.New()
	client.SetTimeout(time.Second * time.Duration(timeout))
	telemetry.InstrumentResty(client, "alert_webhook", tel)

	return WebhookSink{url: cfg.URL, http: client, tel: tel}
}

func (s WebhookSink) Notify(ctx context.Context, message string) {
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(webhookPayload{Content: message}).
		Post(s.url)
	if err != nil {
		s.tel.ReportBroken(report_webhook_notify, err, s.url)
		return
	}
	if res.IsError() {
		s.tel.ReportBroken(report_webhook_notify, fmt.Errorf("status %d", res.StatusCode()), s.url)
	}
}

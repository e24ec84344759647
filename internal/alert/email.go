package alert

import (
	"context"
	"fmt"
	"hoyocodes-backend/internal/components/telemetry"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const report_email_notify = "email.notify"

var tracer = otel.Tracer("internal/alert")

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

type EmailSink struct {
	config EmailConfig
	tel    telemetry.API
}

func NewEmailSink(cfg EmailConfig, tel telemetry.API) EmailSink {
	return EmailSink{
		config: cfg,
		tel:    telemetry.NewScopedAPI("alert", tel),
	}
}

func (s EmailSink) Notify(ctx context.Context, message string) {
	err := s.send(ctx, message)
	if err != nil {
		s.tel.ReportBroken(report_email_notify, err, s.config.Server)
	}
}

func (s EmailSink) send(ctx context.Context, message string) error {
	_, span := tracer.Start(ctx, "sendAlert")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("hoyocodes <%s>", s.config.EmailAddress)
	mail.To = s.config.To
	mail.Subject = "hoyocodes alert"
	mail.Text = []byte(message)

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}

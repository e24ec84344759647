package alert

import (
	"context"
	"fmt"
	"hoyocodes-backend/internal/components/telemetry"
	"io"
	"log"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestEmailSink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smtp container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	smtp, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025/tcp", "1080/tcp"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := smtp.Terminate(ctx)
		if err != nil {
			t.Fatal(err)
		}
	}()

	host, err := smtp.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := smtp.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	webPort, err := smtp.MappedPort(ctx, "1080/tcp")
	require.NoError(t, err)

	tel := &telemetry.MemoryAPI{}
	sink := NewEmailSink(EmailConfig{
		Server:       host,
		Port:         smtpPort.Int(),
		EmailAddress: "alerts@email.com",
		Password:     "default",
		To:           []string{"operator@email.com"},
	}, tel)
	sink.Notify(ctx, "hsr_fandom returned no codes")
	require.Empty(t, tel.Reports("broken", report_email_notify))

	res, err := resty.New().R().
		Get(fmt.Sprintf("http://%s:%d/messages/1.plain", host, webPort.Int()))
	require.NoError(t, err)
	require.Contains(t, res.String(), "hsr_fandom returned no codes")
}

func TestEmailSinkUnreachable(t *testing.T) {
	tel := &telemetry.MemoryAPI{}
	sink := NewEmailSink(EmailConfig{
		Server:       "127.0.0.1",
		Port:         1,
		EmailAddress: "alerts@email.com",
		To:           []string{"operator@email.com"},
	}, tel)
	sink.Notify(context.Background(), "message")
	require.Len(t, tel.Reports("broken", report_email_notify), 1)
}

package fetcher

import (
	"context"
	"fmt"
	"hoyocodes-backend/internal/components/telemetry"
	"hoyocodes-backend/lib/restyutil"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_fetcher_fetch = "fetcher.fetch"

type Config struct {
	// ProxyURL routes every request through an upstream http(s) proxy when set.
	ProxyURL string `json:"proxy_url"`
	// UserAgent pins the client identity, when empty a random browser identity is used per request.
	UserAgent         string            `json:"user_agent"`
	TimeoutSeconds    int               `json:"timeout_seconds"`
	RequestsPerSecond float64           `json:"requests_per_second"`
	Headers           map[string]string `json:"headers"`
	// CaptureDir, when set, receives a copy of every fetched exchange.
	CaptureDir string `json:"capture_dir"`
}

func DefaultConfig() Config {
	return Config{
		TimeoutSeconds:    30,
		RequestsPerSecond: 2,
		Headers: map[string]string{
			"x-rpc-client_type": "4",
		},
	}
}

// FetchError is returned when a page could not be retrieved, either because of a
// network failure (Err is set) or a non-2xx response (StatusCode is set).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	http     *resty.Client
	identity Identity
	tel      telemetry.API
}

func New(cfg Config, tel telemetry.API) (*Fetcher, error) {
	tel = telemetry.NewScopedAPI("fetcher", tel)

	httpClient := resty.New()
	if cfg.ProxyURL != "" {
		// the proxy has to be set while the transport is still an *http.Transport
		httpClient.SetProxy(cfg.ProxyURL)
		if !httpClient.IsProxySet() {
			return nil, fmt.Errorf("invalid proxy url %q", cfg.ProxyURL)
		}
	}
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	httpClient.SetTimeout(time.Second * time.Duration(timeout))
	httpClient.SetHeaders(cfg.Headers)

	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, "hoyocodes.fetcher", tel)

	if cfg.CaptureDir != "" {
		capture, err := restyutil.NewCapture(cfg.CaptureDir)
		if err != nil {
			return nil, fmt.Errorf("capture dir: %w", err)
		}
		capture.Attach(httpClient)
	}

	var identity Identity = RotatingIdentity{}
	if cfg.UserAgent != "" {
		identity = FixedIdentity(cfg.UserAgent)
	}

	return &Fetcher{
		http:     httpClient,
		identity: identity,
		tel:      tel,
	}, nil
}

// Fetch retrieves the body of url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.http.R().
		SetContext(ctx).
		SetHeader("user-agent", f.identity.UserAgent()).
		Get(url)
	if err != nil {
		f.tel.ReportWarning(report_fetcher_fetch, err, url)
		return nil, &FetchError{URL: url, Err: err}
	}
	if !res.IsSuccess() {
		f.tel.ReportWarning(report_fetcher_fetch, fmt.Errorf("status %d", res.StatusCode()), url)
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode()}
	}
	return res.Body(), nil
}

// Package redeem is a client for the HoYoverse web code exchange and the passport token
// exchange used to refresh expired session cookies.
package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/redeem")

const (
	report_client_redeem  = "client.redeem"
	report_client_refresh = "client.refresh"
)

// Outcome is the classified result of a redemption attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAlreadyClaimed
	OutcomeCooldown
	OutcomeRejected
	OutcomeInvalidCredentials
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyClaimed:
		return "already-claimed"
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeRejected:
		return "rejected"
	case OutcomeInvalidCredentials:
		return "invalid-credentials"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// RetcodeNotRedeemableOnWeb is returned for codes that can only be redeemed in game.
const RetcodeNotRedeemableOnWeb = -2024

// ServiceError is a response with a retcode that has no dedicated Outcome.
type ServiceError struct {
	Retcode int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("hoyoverse retcode %d: %s", e.Retcode, e.Message)
}

var ErrUnsupportedGame = errors.New("game does not support web redemption")

// classify maps a retcode to its Outcome, returning a *ServiceError for unknown retcodes.
func classify(retcode int, message string) (Outcome, error) {
	switch retcode {
	case 0:
		return OutcomeSuccess, nil
	case -2017, -2018:
		return OutcomeAlreadyClaimed, nil
	case -2016:
		return OutcomeCooldown, nil
	case -2001, -2003, -2004, -2014, -2021:
		return OutcomeRejected, nil
	case -100, -1071, 10001, 10103:
		return OutcomeInvalidCredentials, nil
	}
	return OutcomeSuccess, &ServiceError{Retcode: retcode, Message: message}
}

type Config struct {
	// Endpoints overrides the code exchange base url of a game.
	Endpoints map[codes.Game]string `json:"endpoints"`
	// PassportURL overrides the base url of the token exchange.
	PassportURL    string `json:"passport_url"`
	Lang           string `json:"lang"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		Lang:           "en",
		TimeoutSeconds: 30,
	}
}

type gameEndpoint struct {
	baseURL string
	gameBiz string
}

var defaultEndpoints = map[codes.Game]gameEndpoint{
	codes.GameGenshin:  {baseURL: "https://sg-hk4e-api.hoyoverse.com", gameBiz: "hk4e_global"},
	codes.GameStarRail: {baseURL: "https://sg-hkrpg-api.hoyoverse.com", gameBiz: "hkrpg_global"},
	codes.GameZZZ:      {baseURL: "https://public-operation-nap.hoyoverse.com", gameBiz: "nap_global"},
}

const (
	defaultPassportURL = "https://passport-api.hoyoverse.com"
	exchangePath       = "/common/apicdkey/api/webExchangeCdkey"
	getBySTokenPath    = "/account/ma-passport/token/getBySToken"
	passportAppID      = "c9oqaq3s3gu8"
)

// Supported reports whether codes of game can be redeemed through the web exchange.
func Supported(game codes.Game) bool {
	_, ok := defaultEndpoints[game]
	return ok
}

type Client struct {
	http      *resty.Client
	endpoints map[codes.Game]gameEndpoint
	passport  string
	lang      string
	tel       telemetry.API
}

func NewClient(cfg Config, tel telemetry.API) (*Client, error) {
	tel = telemetry.NewScopedAPI("redeem", tel)

	endpoints := make(map[codes.Game]gameEndpoint, len(defaultEndpoints))
	for game, e := range defaultEndpoints {
		if override := cfg.Endpoints[game]; override != "" {
			e.baseURL = override
		}
		endpoints[game] = e
	}
	passport := cfg.PassportURL
	if passport == "" {
		passport = defaultPassportURL
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	deviceID, err := random.String(32)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(time.Second * time.Duration(timeout))
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	client.SetHeader("x-rpc-device_id", deviceID)
	client.SetHeader("x-rpc-client_type", "4")
	telemetry.InstrumentResty(client, "internal/redeem/http", tel)

	return &Client{
		http:      client,
		endpoints: endpoints,
		passport:  passport,
		lang:      lang,
		tel:       tel,
	}, nil
}

type envelope[T any] struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func decodeEnvelope[T any](res *resty.Response) (envelope[T], error) {
	var out envelope[T]
	if res.IsError() {
		return out, fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	err := json.Unmarshal(res.Body(), &out)
	if err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Redeem submits code for the account uid of game using credentials.
//
// Retcodes without a dedicated Outcome are returned as *ServiceError, transport
// failures as plain errors.
func (c *Client) Redeem(
	ctx context.Context,
	credentials codes.CredentialSet,
	code codes.Code,
	game codes.Game,
	uid string,
) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "client:Redeem")
	defer span.End()
	span.SetAttributes(
		attribute.String("custom.game", string(game)),
		attribute.String("custom.code", string(code)),
	)

	endpoint, ok := c.endpoints[game]
	if !ok {
		return OutcomeSuccess, fmt.Errorf("%w: %s", ErrUnsupportedGame, game)
	}
	region, err := Region(game, uid)
	if err != nil {
		return OutcomeSuccess, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("cookie", string(credentials)).
		SetQueryParams(map[string]string{
			"uid":      uid,
			"region":   region,
			"lang":     c.lang,
			"cdkey":    string(code),
			"game_biz": endpoint.gameBiz,
			"sLangKey": "en-us",
		}).
		Get(endpoint.baseURL + exchangePath)
	if err != nil {
		span.SetStatus(otelcodes.Error, "failed to fetch")
		c.tel.ReportWarning(report_client_redeem, err, game, code)
		return OutcomeSuccess, err
	}

	body, err := decodeEnvelope[json.RawMessage](res)
	if err != nil {
		span.SetStatus(otelcodes.Error, "failed to decode response")
		c.tel.ReportBroken(report_client_redeem, err, game, code)
		return OutcomeSuccess, err
	}

	outcome, err := classify(body.Retcode, body.Message)
	if err != nil {
		span.RecordError(err)
		return outcome, err
	}
	span.SetAttributes(attribute.String("custom.outcome", outcome.String()))
	c.tel.ReportDebug("redeem", game, code, outcome.String(), body.Retcode)
	return outcome, nil
}

type passportToken struct {
	TokenType int    `json:"token_type"`
	Token     string `json:"token"`
}

type passportUserInfo struct {
	AID string `json:"aid"`
	MID string `json:"mid"`
}

type passportData struct {
	Tokens   []passportToken  `json:"tokens"`
	UserInfo passportUserInfo `json:"user_info"`
}

type passportRequest struct {
	DstTokenTypes []int `json:"dst_token_types"`
}

// Refresh exchanges the stoken in credentials for fresh cookie and ltoken values. The
// returned cookies only hold the refreshed fields, see Cookies.Merge.
func (c *Client) Refresh(ctx context.Context, credentials codes.CredentialSet) (Cookies, error) {
	ctx, span := tracer.Start(ctx, "client:Refresh")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("cookie", string(credentials)).
		SetHeader("x-rpc-app_id", passportAppID).
		SetHeader("content-type", "application/json").
		SetBody(passportRequest{DstTokenTypes: []int{2, 4}}).
		Post(c.passport + getBySTokenPath)
	if err != nil {
		span.SetStatus(otelcodes.Error, "failed to fetch")
		c.tel.ReportWarning(report_client_refresh, err)
		return nil, err
	}

	body, err := decodeEnvelope[passportData](res)
	if err != nil {
		span.SetStatus(otelcodes.Error, "failed to decode response")
		c.tel.ReportBroken(report_client_refresh, err)
		return nil, err
	}
	if body.Retcode != 0 {
		err := &ServiceError{Retcode: body.Retcode, Message: body.Message}
		span.RecordError(err)
		c.tel.ReportWarning(report_client_refresh, err)
		return nil, err
	}

	var out Cookies
	if body.Data.UserInfo.AID != "" {
		out = append(out, Cookie{Name: "account_id_v2", Value: body.Data.UserInfo.AID})
	}
	if body.Data.UserInfo.MID != "" {
		out = append(out, Cookie{Name: "account_mid_v2", Value: body.Data.UserInfo.MID})
	}
	for _, token := range body.Data.Tokens {
		switch token.TokenType {
		case 2:
			out = append(out, Cookie{Name: "cookie_token_v2", Value: token.Token})
		case 4:
			out = append(out, Cookie{Name: "ltoken_v2", Value: token.Token})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("token exchange returned no tokens")
	}
	return out, nil
}

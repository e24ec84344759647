// Package verify decides whether a code is currently redeemable by redeeming it on a real
// game account.
package verify

import (
	"context"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/chrono"
	"hoyocodes-backend/internal/components/telemetry"
	"hoyocodes-backend/internal/redeem"
	"time"
)

const (
	report_verifier_verify   = "verifier.verify"
	report_verifier_cooldown = "verifier.cooldown"
	report_verifier_refresh  = "verifier.refresh"
)

// Redeemer is the external redemption service.
type Redeemer interface {
	Redeem(ctx context.Context, credentials codes.CredentialSet, code codes.Code, game codes.Game, uid string) (redeem.Outcome, error)
	// Refresh exchanges credentials for refreshed cookie fields.
	Refresh(ctx context.Context, credentials codes.CredentialSet) (redeem.Cookies, error)
}

type CredentialStore interface {
	// Get returns the credentials of game, ok is false when none are stored.
	Get(ctx context.Context, game codes.Game) (credentials codes.CredentialSet, ok bool, err error)
	Set(ctx context.Context, game codes.Game, credentials codes.CredentialSet) error
}

type PrefixLookup interface {
	// HasCodeWithPrefix reports whether a code of game other than exclude starts with prefix.
	HasCodeWithPrefix(ctx context.Context, game codes.Game, prefix string, exclude codes.Code) (bool, error)
}

// PrefixFamily marks a game whose codes are issued as many single-use variants sharing
// the first Length characters. Only the first cataloged variant is verified.
type PrefixFamily struct {
	Game   codes.Game `json:"game"`
	Length int        `json:"length"`
}

type Config struct {
	// UIDs are the account uids used to redeem codes, a game without a uid is not verified.
	UIDs map[codes.Game]string `json:"uids"`
	// CredentialGame is the game whose credentials are used for every redemption, all games
	// share one HoYoverse account.
	CredentialGame         codes.Game    `json:"credential_game"`
	CooldownBackoffSeconds int           `json:"cooldown_backoff_seconds"`
	PrefixFamily           *PrefixFamily `json:"prefix_family"`
}

func DefaultConfig() Config {
	return Config{
		CredentialGame:         codes.GameGenshin,
		CooldownBackoffSeconds: 60,
		PrefixFamily: &PrefixFamily{
			Game:   codes.GameHonkai,
			Length: 8,
		},
	}
}

type Result struct {
	Status codes.Status
	// Claimed is true when the redemption service was actually called, callers use it to
	// pace the next verification.
	Claimed bool
}

// ErrNoCredentials is returned when the credential store holds nothing for the
// credential game.
var ErrNoCredentials = errors.New("no credentials stored")

// CredentialRefreshError means the credentials were rejected and could not be refreshed,
// verification of that code failed but others may still succeed.
type CredentialRefreshError struct {
	Game codes.Game
	Err  error
}

func (e *CredentialRefreshError) Error() string {
	return fmt.Sprintf("refresh %s credentials: %s", e.Game, e.Err.Error())
}

func (e *CredentialRefreshError) Unwrap() error {
	return e.Err
}

// FatalError is an unclassified failure of the redemption service, the current run
// should be abandoned.
type FatalError struct {
	Game codes.Game
	Code codes.Code
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("verify %s %s: %s", e.Game, e.Code, e.Err.Error())
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

type Verifier struct {
	redeemer    Redeemer
	credentials CredentialStore
	lookup      PrefixLookup
	clock       chrono.API
	config      Config
	tel         telemetry.API
}

func New(
	redeemer Redeemer,
	credentials CredentialStore,
	lookup PrefixLookup,
	clock chrono.API,
	cfg Config,
	tel telemetry.API,
) *Verifier {
	if cfg.CredentialGame == "" {
		cfg.CredentialGame = codes.GameGenshin
	}
	if cfg.CooldownBackoffSeconds <= 0 {
		cfg.CooldownBackoffSeconds = 60
	}
	return &Verifier{
		redeemer:    redeemer,
		credentials: credentials,
		lookup:      lookup,
		clock:       clock,
		config:      cfg,
		tel:         telemetry.NewScopedAPI("verify", tel),
	}
}

func (v *Verifier) cooldownBackoff() time.Duration {
	return time.Second * time.Duration(v.config.CooldownBackoffSeconds)
}

// VerifyNew verifies a code that is not cataloged yet. A code whose prefix family
// already has a cataloged variant is NOT_OK without reaching the redemption service,
// every other code goes through Verify.
func (v *Verifier) VerifyNew(ctx context.Context, code codes.Code, game codes.Game) (Result, error) {
	prefix, ok := v.familyPrefix(code, game)
	if ok {
		exists, err := v.lookup.HasCodeWithPrefix(ctx, game, prefix, code)
		if err != nil {
			return Result{}, fmt.Errorf("lookup prefix %s: %w", prefix, err)
		}
		if exists {
			v.tel.ReportDebug("prefix family match", game, code, prefix)
			return Result{Status: codes.StatusNotOK}, nil
		}
	}
	return v.Verify(ctx, code, game)
}

// familyPrefix returns the leading Length runes of code when game is the prefix family.
func (v *Verifier) familyPrefix(code codes.Code, game codes.Game) (string, bool) {
	family := v.config.PrefixFamily
	if family == nil || v.lookup == nil || family.Game != game || family.Length <= 0 {
		return "", false
	}
	runes := []rune(string(code))
	if len(runes) < family.Length {
		return "", false
	}
	return string(runes[:family.Length]), true
}

// Verify redeems code on the configured account of game and classifies the result.
//
// Cooldowns are retried without limit, expired credentials are refreshed at most once
// and persisted before the retry.
func (v *Verifier) Verify(ctx context.Context, code codes.Code, game codes.Game) (Result, error) {
	uid, ok := v.config.UIDs[game]
	if !ok || uid == "" {
		v.tel.ReportDebug("no uid, assuming code is valid", game, code)
		return Result{Status: codes.StatusOK}, nil
	}
	if !redeem.Supported(game) {
		v.tel.ReportDebug("no web redemption, assuming code is valid", game, code)
		return Result{Status: codes.StatusOK}, nil
	}

	credentials, ok, err := v.credentials.Get(ctx, v.config.CredentialGame)
	if err != nil {
		return Result{}, fmt.Errorf("load credentials: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w for %s", ErrNoCredentials, v.config.CredentialGame)
	}

	refreshed := false
	for {
		outcome, err := v.redeemer.Redeem(ctx, credentials, code, game, uid)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			var serviceErr *redeem.ServiceError
			if errors.As(err, &serviceErr) && serviceErr.Retcode == redeem.RetcodeNotRedeemableOnWeb {
				return Result{Status: codes.StatusNotOK, Claimed: true}, nil
			}
			v.tel.ReportBroken(report_verifier_verify, err, game, code)
			return Result{}, &FatalError{Game: game, Code: code, Err: err}
		}

		switch outcome {
		case redeem.OutcomeSuccess, redeem.OutcomeAlreadyClaimed:
			return Result{Status: codes.StatusOK, Claimed: true}, nil
		case redeem.OutcomeRejected:
			return Result{Status: codes.StatusNotOK, Claimed: true}, nil
		case redeem.OutcomeCooldown:
			v.tel.ReportWarning(report_verifier_cooldown, game, code)
			err := v.clock.Sleep(ctx, v.cooldownBackoff())
			if err != nil {
				return Result{}, err
			}
		case redeem.OutcomeInvalidCredentials:
			if refreshed {
				return Result{}, &CredentialRefreshError{
					Game: v.config.CredentialGame,
					Err:  errors.New("credentials rejected after refresh"),
				}
			}
			credentials, err = v.refresh(ctx, credentials)
			if err != nil {
				return Result{}, err
			}
			refreshed = true
		default:
			return Result{}, &FatalError{Game: game, Code: code, Err: fmt.Errorf("unknown outcome %s", outcome)}
		}
	}
}

// refresh exchanges credentials for new ones and persists them before they are used.
func (v *Verifier) refresh(ctx context.Context, credentials codes.CredentialSet) (codes.CredentialSet, error) {
	fields, err := v.redeemer.Refresh(ctx, credentials)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		v.tel.ReportWarning(report_verifier_refresh, err, v.config.CredentialGame)
		return "", &CredentialRefreshError{Game: v.config.CredentialGame, Err: err}
	}

	merged := redeem.MergeCredentials(credentials, fields)
	err = v.credentials.Set(ctx, v.config.CredentialGame, merged)
	if err != nil {
		return "", &CredentialRefreshError{
			Game: v.config.CredentialGame,
			Err:  fmt.Errorf("persist refreshed credentials: %w", err),
		}
	}
	v.tel.ReportDebug("credentials refreshed", v.config.CredentialGame)
	return merged, nil
}

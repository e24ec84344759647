package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/telemetry"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupClient(t testing.TB, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Endpoints: map[codes.Game]string{
			codes.GameGenshin:  srv.URL,
			codes.GameStarRail: srv.URL,
			codes.GameZZZ:      srv.URL,
		},
		PassportURL: srv.URL,
	}, &telemetry.MemoryAPI{})
	require.NoError(t, err)
	return client
}

func TestRedeemRequest(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, exchangePath, r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, "800000001", query.Get("uid"))
		require.Equal(t, "os_asia", query.Get("region"))
		require.Equal(t, "GENSHINGIFT", query.Get("cdkey"))
		require.Equal(t, "hk4e_global", query.Get("game_biz"))
		require.Equal(t, "en", query.Get("lang"))
		require.Equal(t, "ltuid_v2=1; ltoken_v2=abc", r.Header.Get("cookie"))
		require.Len(t, r.Header.Get("x-rpc-device_id"), 32)

		fmt.Fprint(w, `{"retcode": 0, "message": "OK", "data": {"msg": "Redeemed"}}`)
	})

	outcome, err := client.Redeem(context.Background(), "ltuid_v2=1; ltoken_v2=abc", "GENSHINGIFT", codes.GameGenshin, "800000001")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)
}

func TestRedeemClassification(t *testing.T) {
	testCases := []struct {
		retcode  int
		expected Outcome
	}{
		{0, OutcomeSuccess},
		{-2017, OutcomeAlreadyClaimed},
		{-2018, OutcomeAlreadyClaimed},
		{-2016, OutcomeCooldown},
		{-2001, OutcomeRejected},
		{-2003, OutcomeRejected},
		{-2004, OutcomeRejected},
		{-2014, OutcomeRejected},
		{-2021, OutcomeRejected},
		{-100, OutcomeInvalidCredentials},
		{-1071, OutcomeInvalidCredentials},
		{10001, OutcomeInvalidCredentials},
		{10103, OutcomeInvalidCredentials},
	}

	for _, test := range testCases {
		client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"retcode": %d, "message": "", "data": null}`, test.retcode)
		})
		outcome, err := client.Redeem(context.Background(), "a=b", "CODE", codes.GameStarRail, "600000001")
		require.NoError(t, err, test.retcode)
		require.Equal(t, test.expected, outcome, test.retcode)
	}
}

func TestRedeemServiceError(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retcode": -2024, "message": "not available on web", "data": null}`)
	})

	_, err := client.Redeem(context.Background(), "a=b", "CODE", codes.GameZZZ, "1300000001")
	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	require.Equal(t, RetcodeNotRedeemableOnWeb, serviceErr.Retcode)
}

func TestRedeemTransportErrors(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.Redeem(context.Background(), "a=b", "CODE", codes.GameGenshin, "600000001")
	require.Error(t, err)
	var serviceErr *ServiceError
	require.False(t, errors.As(err, &serviceErr))

	_, err = client.Redeem(context.Background(), "a=b", "CODE", codes.GameHonkai, "100000001")
	require.ErrorIs(t, err, ErrUnsupportedGame)
}

func TestRefresh(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, getBySTokenPath, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, passportAppID, r.Header.Get("x-rpc-app_id"))
		require.Equal(t, "stoken=s; mid=m", r.Header.Get("cookie"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req passportRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, []int{2, 4}, req.DstTokenTypes)

		fmt.Fprint(w, `{
			"retcode": 0,
			"message": "OK",
			"data": {
				"tokens": [{"token_type": 2, "token": "ct"}, {"token_type": 4, "token": "lt"}],
				"user_info": {"aid": "42", "mid": "m"}
			}
		}`)
	})

	refreshed, err := client.Refresh(context.Background(), "stoken=s; mid=m")
	require.NoError(t, err)
	require.Equal(t, Cookies{
		{Name: "account_id_v2", Value: "42"},
		{Name: "account_mid_v2", Value: "m"},
		{Name: "cookie_token_v2", Value: "ct"},
		{Name: "ltoken_v2", Value: "lt"},
	}, refreshed)
}

func TestRefreshRejected(t *testing.T) {
	client := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retcode": -3101, "message": "stoken expired", "data": null}`)
	})
	_, err := client.Refresh(context.Background(), "stoken=s")
	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	require.Equal(t, -3101, serviceErr.Retcode)
}

func TestRegion(t *testing.T) {
	testCases := []struct {
		game     codes.Game
		uid      string
		expected string
	}{
		{codes.GameGenshin, "600000001", "os_usa"},
		{codes.GameGenshin, "700000001", "os_euro"},
		{codes.GameGenshin, "900000001", "os_cht"},
		{codes.GameStarRail, "800000001", "prod_official_asia"},
		{codes.GameZZZ, "1000000001", "prod_gf_us"},
		{codes.GameZZZ, "1500000001", "prod_gf_eu"},
		{codes.GameZZZ, "1700000001", "prod_gf_sg"},
	}
	for _, test := range testCases {
		region, err := Region(test.game, test.uid)
		require.NoError(t, err)
		require.Equal(t, test.expected, region)
	}

	_, err := Region(codes.GameGenshin, "100000001")
	require.Error(t, err)
	_, err = Region(codes.GameZZZ, "1")
	require.Error(t, err)
	_, err = Region(codes.GameTOT, "600000001")
	require.ErrorIs(t, err, ErrUnsupportedGame)
}

func TestCookies(t *testing.T) {
	cookies := ParseCookies("ltuid_v2=1; ltoken_v2=old;; broken; cookie_token_v2=x=y ")
	require.Equal(t, Cookies{
		{Name: "ltuid_v2", Value: "1"},
		{Name: "ltoken_v2", Value: "old"},
		{Name: "cookie_token_v2", Value: "x=y"},
	}, cookies)

	merged := MergeCredentials(
		"ltuid_v2=1; ltoken_v2=old; stoken=s",
		Cookies{{Name: "ltoken_v2", Value: "new"}, {Name: "cookie_token_v2", Value: "ct"}},
	)
	require.Equal(t, codes.CredentialSet("ltuid_v2=1; ltoken_v2=new; stoken=s; cookie_token_v2=ct"), merged)
}

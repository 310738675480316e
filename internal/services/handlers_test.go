package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/testutil"
)

func apiRequest(t *testing.T, server *httptest.Server, method, path, roleKey string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if roleKey != "" {
		req.Header.Set("X-Role-Key", roleKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func TestStakeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.svc.newRouter())
	defer server.Close()

	account := testutil.RandomAddress()
	status, _ := apiRequest(t, server, http.MethodPost, "/v1/referrals/bind", "", map[string]string{
		"account":  account,
		"referrer": env.root,
	})
	require.Equal(t, http.StatusOK, status)

	status, body := apiRequest(t, server, http.MethodPost, "/v1/stakes", "", map[string]any{
		"account":  account,
		"amount":   sdkmath.NewIntWithDecimal(100, 18).String(),
		"selector": 0,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	t.Run("malformed amount", func(t *testing.T) {
		status, _ := apiRequest(t, server, http.MethodPost, "/v1/stakes", "", map[string]any{
			"account":  account,
			"amount":   "one hundred",
			"selector": 0,
		})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		status, _ := apiRequest(t, server, http.MethodPost, "/v1/stakes", "", map[string]any{
			"account": account,
			"amount":  "100",
			"period":  3,
		})
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestQueryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.svc.newRouter())
	defer server.Close()

	account := testutil.RandomAddress()
	env.bindAndStake(t, account, sdkmath.NewIntWithDecimal(100, 18), 1)

	status, body := apiRequest(t, server, http.MethodGet, "/v1/accounts/"+account, "", nil)
	require.Equal(t, http.StatusOK, status)
	var accountResp struct {
		Data struct {
			Addr       string `json:"addr"`
			OpenStakes int    `json:"open_stakes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &accountResp))
	require.Equal(t, account, accountResp.Data.Addr)
	require.Equal(t, 1, accountResp.Data.OpenStakes)

	status, body = apiRequest(t, server, http.MethodGet, "/v1/accounts/"+account+"/stakes", "", nil)
	require.Equal(t, http.StatusOK, status)
	var stakesResp struct {
		Data []struct {
			Index  int  `json:"index"`
			Closed bool `json:"closed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &stakesResp))
	require.Len(t, stakesResp.Data, 1)
	require.False(t, stakesResp.Data[0].Closed)

	status, _ = apiRequest(t, server, http.MethodGet, "/v1/accounts/"+testutil.RandomAddress(), "", nil)
	require.Equal(t, http.StatusNotFound, status)

	status, body = apiRequest(t, server, http.MethodGet, "/v1/params", "", nil)
	require.Equal(t, http.StatusOK, status)
	var paramsResp struct {
		Data paramsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &paramsResp))
	require.Equal(t, uint64(1), paramsResp.Data.Version)
	require.Len(t, paramsResp.Data.TierRates, 7)

	status, _ = apiRequest(t, server, http.MethodGet, "/v1/admission?account="+account, "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = apiRequest(t, server, http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAdminEndpointsRequireRoleKey(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.svc.newRouter())
	defer server.Close()

	relaxed := map[string]bool{"relaxed": true}

	status, _ := apiRequest(t, server, http.MethodPut, "/v1/admin/admission-mode", "", relaxed)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = apiRequest(t, server, http.MethodPut, "/v1/admin/admission-mode", "tier", relaxed)
	require.Equal(t, http.StatusForbidden, status, "tier manager key must not drive owner operations")

	status, body := apiRequest(t, server, http.MethodPut, "/v1/admin/admission-mode", "admin", relaxed)
	require.Equal(t, http.StatusOK, status, string(body))
	var resp struct {
		Data paramsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.True(t, resp.Data.RelaxedBinding)
	require.Equal(t, uint64(2), resp.Data.Version)
}

func TestTierEndpoints(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.svc.newRouter())
	defer server.Close()

	account := testutil.RandomAddress()
	status, _ := apiRequest(t, server, http.MethodPost, "/v1/referrals/bind", "", map[string]string{
		"account":  account,
		"referrer": env.root,
	})
	require.Equal(t, http.StatusOK, status)

	status, body := apiRequest(t, server, http.MethodPut, "/v1/admin/tiers/"+account, "tier", map[string]string{"rank": "V4"})
	require.Equal(t, http.StatusOK, status, string(body))
	var rankResp struct {
		Data struct {
			Effective       int  `json:"effective"`
			OverrideBinding bool `json:"override_binding"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &rankResp))
	require.Equal(t, 4, rankResp.Data.Effective)
	require.True(t, rankResp.Data.OverrideBinding)

	t.Run("invalid rank", func(t *testing.T) {
		status, _ := apiRequest(t, server, http.MethodPut, "/v1/admin/tiers/"+account, "tier", map[string]string{"rank": "V9"})
		require.Equal(t, http.StatusBadRequest, status)
	})

	status, _ = apiRequest(t, server, http.MethodDelete, "/v1/admin/tiers/"+account, "tier", nil)
	require.Equal(t, http.StatusOK, status)
}

//go:build e2e

package e2etest

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
	"github.com/syilabs-io/syi-staking-engine/testutil"
)

func TestStakeLifecycle(t *testing.T) {
	tm := StartManager(t)
	ctx := context.Background()

	account := testutil.RandomAddress()
	root := tm.Config.Engine.RootAddress

	// Staking before binding a referrer is refused.
	status, _ := tm.Post(t, "/v1/stakes", map[string]any{
		"account":  account,
		"amount":   sdkmath.NewIntWithDecimal(100, 18).String(),
		"selector": 1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = tm.Post(t, "/v1/referrals/bind", map[string]string{
		"account":  account,
		"referrer": root,
	})
	require.Equal(t, http.StatusOK, status)

	// Binding is immutable.
	status, _ = tm.Post(t, "/v1/referrals/bind", map[string]string{
		"account":  account,
		"referrer": root,
	})
	require.Equal(t, http.StatusConflict, status)

	principal := sdkmath.NewIntWithDecimal(1_000, 18)
	status, body := tm.Post(t, "/v1/stakes", map[string]any{
		"account":  account,
		"amount":   principal.String(),
		"selector": 1,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var accountResp struct {
		Data struct {
			ActivePrincipal string `json:"active_principal"`
			Referrer        string `json:"referrer"`
			OpenStakes      int    `json:"open_stakes"`
		} `json:"data"`
	}
	status, body = tm.Get(t, "/v1/accounts/"+account)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &accountResp))
	require.Equal(t, principal.String(), accountResp.Data.ActivePrincipal)
	require.Equal(t, root, accountResp.Data.Referrer)
	require.Equal(t, 1, accountResp.Data.OpenStakes)

	// The event processor persists emitted records asynchronously.
	require.Eventually(t, func() bool {
		events, err := tm.DbClient.GetEventsByAccount(ctx, account, 100)
		if err != nil {
			return false
		}
		seen := make(map[string]bool, len(events))
		for _, ev := range events {
			seen[ev.EventType] = true
		}
		return seen[types.EventReferrerBound.String()] && seen[types.EventStakeOpened.String()]
	}, eventuallyWaitTimeOut, eventuallyPollTime)
}

func TestAdminSurface(t *testing.T) {
	tm := StartManager(t)

	account := testutil.RandomAddress()
	status, _ := tm.Post(t, "/v1/referrals/bind", map[string]string{
		"account":  account,
		"referrer": tm.Config.Engine.RootAddress,
	})
	require.Equal(t, http.StatusOK, status)

	// Wrong role key is rejected before the handler runs.
	status, _ = tm.Put(t, "/v1/admin/admission-mode", "wrong-key", map[string]bool{"relaxed": true})
	require.Equal(t, http.StatusForbidden, status)

	status, _ = tm.Put(t, "/v1/admin/admission-mode", testAdminKey, map[string]bool{"relaxed": true})
	require.Equal(t, http.StatusOK, status)

	// The tier manager key cannot drive owner operations.
	status, _ = tm.Put(t, "/v1/admin/admission-mode", testTierKey, map[string]bool{"relaxed": false})
	require.Equal(t, http.StatusForbidden, status)

	status, body := tm.Put(t, "/v1/admin/tiers/"+account, testTierKey, map[string]string{"rank": "V2"})
	require.Equal(t, http.StatusOK, status, string(body))

	var rankResp struct {
		Data struct {
			Effective       int  `json:"effective"`
			OverrideBinding bool `json:"override_binding"`
		} `json:"data"`
	}
	status, body = tm.Get(t, "/v1/accounts/"+account+"/rank")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &rankResp))
	require.Equal(t, int(types.RankV2), rankResp.Data.Effective)
	require.True(t, rankResp.Data.OverrideBinding)
}

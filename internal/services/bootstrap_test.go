package services

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/testutil"
)

func TestBootstrapFromGenesis(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.Bootstrap(context.Background()))
}

func TestBootstrapRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := testutil.RandomAddress()
	principal := sdkmath.NewIntWithDecimal(300, 18)
	env.bindAndStake(t, account, principal, 0)
	require.NotNil(t, env.db.state)

	// A second service instance over the same store picks up the ledger.
	restarted, err := NewService(env.svc.cfg, env.db, env.exchange, env.token, env.queue)
	require.NoError(t, err)
	require.NoError(t, restarted.Bootstrap(ctx))

	info, err := restarted.engine.AccountInfo(account)
	require.NoError(t, err)
	require.Equal(t, principal.String(), info.ActivePrincipal.String())
	require.Equal(t, env.root, info.Referrer)
	require.Equal(t, principal.String(), restarted.engine.TotalPrincipal().String())
}

func TestBootstrapAbortsStaleSettlements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := &model.SettlementDocument{
		Id:         "stale-settlement",
		Account:    testutil.RandomAddress(),
		StakeIndex: 0,
		Kind:       "UNSTAKE",
		Amount:     "1000",
		Status:     model.SettlementStatusPrepared,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
		UpdatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, env.db.SaveSettlement(ctx, stale))

	require.NoError(t, env.svc.Bootstrap(ctx))

	require.Empty(t, env.db.settlementsByStatus(model.SettlementStatusPrepared))
	aborted := env.db.settlementsByStatus(model.SettlementStatusAborted)
	require.Len(t, aborted, 1)
	require.Equal(t, "stale-settlement", aborted[0].Id)
}

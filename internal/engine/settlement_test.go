package engine

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

func realized(t *testing.T, e *Engine, addr string) sdkmath.Int {
	t.Helper()
	info, err := e.AccountInfo(addr)
	require.NoError(t, err)
	return info.RealizedProceeds
}

// newDoublingEngine compounds once over the whole lock: a stake held to
// maturity accrues exactly its principal as yield, which keeps the pro rata
// proceeds split in round numbers.
func newDoublingEngine(t *testing.T) (*Engine, OwnerToken, *eventSink) {
	t.Helper()
	p := testParams()
	p.Periods = []Period{{
		Selector:     0,
		Duration:     100 * time.Second,
		CompoundUnit: 100 * time.Second,
		Multiplier:   sdkmath.LegacyMustNewDecFromStr("2.0"),
	}}
	sink := &eventSink{}
	e, owner, err := New(p, rootAddr, feeSink, sink)
	require.NoError(t, err)
	return e, owner, sink
}

func TestCompleteUnstakeSplit(t *testing.T) {
	e, _, sink := newDoublingEngine(t)
	t0 := time.Unix(1_700_000_000, 0)

	bind(t, e, "alice", rootAddr, t0)
	stake(t, e, "alice", 50, 0, t0)
	bind(t, e, "bob", "alice", t0)
	require.NoError(t, e.BindFriend("bob", "carol", t0))
	stake(t, e, "bob", 800, 0, t0) // alice KPI 800 -> V1

	at := t0.Add(200 * time.Second)
	plan, err := e.PrepareUnstake("bob", 0, at)
	require.NoError(t, err)
	require.True(t, plan.Yield.Equal(sdkmath.NewInt(800)))

	// Principal and yield are equal, so exactly half the proceeds are the
	// yield portion and carry the fees.
	payout, err := e.Complete(plan, sdkmath.NewInt(10_000), at)
	require.NoError(t, err)
	require.True(t, payout.PrincipalProceeds.Equal(sdkmath.NewInt(5_000)))
	require.True(t, payout.YieldProceeds.Equal(sdkmath.NewInt(5_000)))

	// 5% friend and 35% pool of the yield portion, no redemption fee on
	// unstake; the principal portion passes through untouched.
	require.True(t, payout.FriendCut.Equal(sdkmath.NewInt(250)))
	require.Equal(t, "carol", payout.Friend)
	require.True(t, payout.CommissionPool.Equal(sdkmath.NewInt(1_750)))
	require.True(t, payout.RedemptionFee.IsZero())
	require.True(t, payout.Net.Equal(sdkmath.NewInt(8_000)))
	require.True(t, payout.Net.GTE(payout.PrincipalProceeds))

	// alice is the only ranked ancestor: one V1 slice of 5%.
	require.Len(t, payout.Shares, 1)
	require.Equal(t, "alice", payout.Shares[0].Beneficiary)
	require.Equal(t, types.RankV1, payout.Shares[0].Rank)
	require.True(t, payout.Shares[0].Amount.Equal(sdkmath.NewInt(250)))
	require.True(t, payout.FeeSinkTotal.Equal(sdkmath.NewInt(1_500)))

	t.Run("proceeds are credited to every party", func(t *testing.T) {
		require.True(t, realized(t, e, "bob").Equal(sdkmath.NewInt(8_000)))
		require.True(t, realized(t, e, "carol").Equal(sdkmath.NewInt(250)))
		require.True(t, realized(t, e, "alice").Equal(sdkmath.NewInt(250)))
		require.True(t, realized(t, e, feeSink).Equal(sdkmath.NewInt(1_500)))
	})

	t.Run("events", func(t *testing.T) {
		require.Len(t, sink.ofType(types.EventStakeClosed), 1)
		require.Len(t, sink.ofType(types.EventCommissionPaid), 1)
		// root sits at depth 2 with no stake of its own.
		require.Len(t, sink.ofType(types.EventEligibilityCheckFailed), 1)
	})

	t.Run("principal leaves the ledger", func(t *testing.T) {
		require.True(t, e.TotalPrincipal().Equal(sdkmath.NewInt(50)))
		info, err := e.AccountInfo("bob")
		require.NoError(t, err)
		require.True(t, info.ActivePrincipal.IsZero())
		require.Zero(t, info.OpenStakes)
	})
}

func TestUnstakeZeroYieldKeepsPrincipalWhole(t *testing.T) {
	p := testParams()
	// The compound unit exceeds the lock, so no yield ever accrues.
	p.Periods = []Period{{
		Selector:     0,
		Duration:     time.Second,
		CompoundUnit: time.Hour,
		Multiplier:   sdkmath.LegacyMustNewDecFromStr("1.015"),
	}}
	e, _, err := New(p, rootAddr, feeSink, &eventSink{})
	require.NoError(t, err)

	t0 := time.Unix(1_700_000_000, 0)
	bind(t, e, "alice", rootAddr, t0)
	require.NoError(t, e.BindFriend("alice", "carol", t0))
	stake(t, e, "alice", 1_000, 0, t0)

	plan, err := e.PrepareUnstake("alice", 0, t0.Add(2*time.Second))
	require.NoError(t, err)
	require.True(t, plan.Yield.IsZero())

	payout, err := e.Complete(plan, sdkmath.NewInt(1_000), t0.Add(2*time.Second))
	require.NoError(t, err)

	// With no yield there is nothing to tax: no friend cut, no commission
	// pool, the whole principal comes back.
	require.True(t, payout.YieldProceeds.IsZero())
	require.True(t, payout.FriendCut.IsZero())
	require.True(t, payout.CommissionPool.IsZero())
	require.True(t, payout.FeeSinkTotal.IsZero())
	require.True(t, payout.Net.Equal(sdkmath.NewInt(1_000)))
	require.True(t, realized(t, e, "alice").Equal(sdkmath.NewInt(1_000)))
	require.True(t, realized(t, e, "carol").IsZero())
	require.True(t, realized(t, e, feeSink).IsZero())
}

func TestCompleteInterestFee(t *testing.T) {
	e, _, sink := newTestEngine(t)
	t0 := time.Unix(1_700_000_000, 0)

	bind(t, e, "alice", rootAddr, t0)
	stake(t, e, "alice", 500, 0, t0)

	at := t0.Add(30 * time.Second)
	plan, err := e.PrepareInterestWithdrawal("alice", 0, at)
	require.NoError(t, err)

	payout, err := e.Complete(plan, sdkmath.NewInt(10_000), at)
	require.NoError(t, err)

	// An interest withdrawal realizes yield only, so the full proceeds are
	// the yield portion. The 1% redemption fee applies to interest
	// withdrawals only. With no bound friend and no ranked ancestor, both
	// the friend cut and the whole pool are forfeited to the fee sink.
	require.True(t, payout.YieldProceeds.Equal(sdkmath.NewInt(10_000)))
	require.True(t, payout.PrincipalProceeds.IsZero())
	require.True(t, payout.RedemptionFee.Equal(sdkmath.NewInt(100)))
	require.True(t, payout.Net.Equal(sdkmath.NewInt(5_900)))
	require.Empty(t, payout.Friend)
	require.Empty(t, payout.Shares)
	require.True(t, payout.FeeSinkTotal.Equal(sdkmath.NewInt(4_100)))
	require.True(t, realized(t, e, feeSink).Equal(sdkmath.NewInt(4_100)))

	require.Len(t, sink.ofType(types.EventInterestWithdrawn), 1)
}

func TestCommissionIncrementalSlices(t *testing.T) {
	e, owner, _ := newDoublingEngine(t)
	t0 := time.Unix(1_700_000_000, 0)
	tierMgr, err := e.SetTierManagerRole(owner)
	require.NoError(t, err)

	// root <- a <- b <- c <- s, every intermediary qualified.
	prev := rootAddr
	for _, addr := range []string{"a", "b", "c"} {
		bind(t, e, addr, prev, t0)
		stake(t, e, addr, 50, 0, t0)
		prev = addr
	}
	bind(t, e, "s", "c", t0)
	require.NoError(t, e.BindFriend("s", "f", t0))
	stake(t, e, "s", 800, 0, t0)

	require.NoError(t, e.SetTier(tierMgr, "c", types.RankV2, t0)) // 10%
	require.NoError(t, e.SetTier(tierMgr, "b", types.RankV1, t0)) // 5%, inside c's slice
	require.NoError(t, e.SetTier(tierMgr, "a", types.RankV3, t0)) // 15%

	at := t0.Add(200 * time.Second)
	plan, err := e.PrepareUnstake("s", 0, at)
	require.NoError(t, err)
	payout, err := e.Complete(plan, sdkmath.NewInt(10_000), at)
	require.NoError(t, err)

	// The yield portion of the 10_000 proceeds is 5_000. c takes the first
	// 10% of it; b's 5% is already covered and pays nothing; a tops up to
	// 15% with the incremental 5%.
	require.True(t, payout.YieldProceeds.Equal(sdkmath.NewInt(5_000)))
	require.Len(t, payout.Shares, 2)
	require.Equal(t, "c", payout.Shares[0].Beneficiary)
	require.True(t, payout.Shares[0].Amount.Equal(sdkmath.NewInt(500)))
	require.Equal(t, "a", payout.Shares[1].Beneficiary)
	require.True(t, payout.Shares[1].Amount.Equal(sdkmath.NewInt(250)))

	t.Run("pool is conserved exactly", func(t *testing.T) {
		total := sdkmath.ZeroInt()
		for _, share := range payout.Shares {
			total = total.Add(share.Amount)
		}
		require.True(t, total.Add(payout.FeeSinkTotal).Equal(payout.CommissionPool))
	})
}

func TestCommissionSkipsIneligibleWithoutBurningRate(t *testing.T) {
	e, owner, sink := newDoublingEngine(t)
	t0 := time.Unix(1_700_000_000, 0)
	tierMgr, err := e.SetTierManagerRole(owner)
	require.NoError(t, err)
	require.NoError(t, e.SetRequireReferrerStake(owner, false, t0))

	// b never stakes and is therefore ineligible; a sits behind it.
	bind(t, e, "a", rootAddr, t0)
	stake(t, e, "a", 50, 0, t0)
	bind(t, e, "b", "a", t0)
	bind(t, e, "s", "b", t0)
	stake(t, e, "s", 800, 0, t0)

	require.NoError(t, e.SetTier(tierMgr, "a", types.RankV2, t0))

	at := t0.Add(200 * time.Second)
	plan, err := e.PrepareUnstake("s", 0, at)
	require.NoError(t, err)
	payout, err := e.Complete(plan, sdkmath.NewInt(10_000), at)
	require.NoError(t, err)

	// b consumed the depth-1 slot but not any of the rate: a still collects
	// its full 10% slice of the 5_000 yield portion from depth 2.
	require.Len(t, payout.Shares, 1)
	require.Equal(t, "a", payout.Shares[0].Beneficiary)
	require.Equal(t, 2, payout.Shares[0].Depth)
	require.True(t, payout.Shares[0].Amount.Equal(sdkmath.NewInt(500)))

	failed := sink.ofType(types.EventEligibilityCheckFailed)
	require.NotEmpty(t, failed)
	ev, ok := failed[0].(EventEligibilityCheckFailed)
	require.True(t, ok)
	require.Equal(t, "b", ev.Ancestor)
	require.Equal(t, 1, ev.Depth)
}

func TestAbortRestoresExactState(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)

	t.Run("unstake", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		bind(t, e, "alice", rootAddr, t0)
		stake(t, e, "alice", 500, 0, t0)

		at := t0.Add(200 * time.Second)
		before, err := e.StakeInfo("alice", 0, at)
		require.NoError(t, err)
		total := e.TotalPrincipal()

		plan, err := e.PrepareUnstake("alice", 0, at)
		require.NoError(t, err)
		require.NoError(t, e.Abort(plan))

		after, err := e.StakeInfo("alice", 0, at)
		require.NoError(t, err)
		require.Equal(t, before, after)
		require.True(t, e.TotalPrincipal().Equal(total))
	})

	t.Run("interest withdrawal", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		bind(t, e, "alice", rootAddr, t0)
		stake(t, e, "alice", 500, 0, t0)

		at := t0.Add(30 * time.Second)
		before, err := e.StakeInfo("alice", 0, at)
		require.NoError(t, err)

		plan, err := e.PrepareInterestWithdrawal("alice", 0, at)
		require.NoError(t, err)
		require.NoError(t, e.Abort(plan))

		after, err := e.StakeInfo("alice", 0, at)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}

func TestSettlementGuards(t *testing.T) {
	e, _, _ := newTestEngine(t)
	t0 := time.Unix(1_700_000_000, 0)

	bind(t, e, "alice", rootAddr, t0)
	stake(t, e, "alice", 500, 0, t0)

	at := t0.Add(30 * time.Second)
	plan, err := e.PrepareInterestWithdrawal("alice", 0, at)
	require.NoError(t, err)

	t.Run("one settlement per stake at a time", func(t *testing.T) {
		_, err := e.PrepareInterestWithdrawal("alice", 0, at)
		require.ErrorIs(t, err, ErrSettlementInFlight)
	})

	t.Run("negative proceeds are rejected", func(t *testing.T) {
		_, err := e.Complete(plan, sdkmath.NewInt(-1), at)
		require.Error(t, err)
	})

	t.Run("a finalized plan cannot be reused", func(t *testing.T) {
		_, err := e.Complete(plan, sdkmath.NewInt(100), at)
		require.NoError(t, err)

		_, err = e.Complete(plan, sdkmath.NewInt(100), at)
		require.Error(t, err)
		require.Error(t, e.Abort(plan))
	})
}

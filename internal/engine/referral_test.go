package engine

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

func TestBindReferrerImmutability(t *testing.T) {
	e, _, _ := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)

	bind(t, e, "alice", rootAddr, now)

	// A second bind always fails, regardless of argument.
	require.ErrorIs(t, e.BindReferrer("alice", rootAddr, now), ErrAlreadyBound)
	require.ErrorIs(t, e.BindReferrer("alice", "somebody-else", now), ErrAlreadyBound)
}

func TestBindReferrerEligibility(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("root is always eligible", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		require.NoError(t, e.BindReferrer("alice", rootAddr, now))
	})

	t.Run("unbound candidate is rejected", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		require.ErrorIs(t, e.BindReferrer("alice", "stranger", now), ErrInvalidReferrer)
	})

	t.Run("self referral is rejected", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		require.ErrorIs(t, e.BindReferrer("alice", "alice", now), ErrInvalidReferrer)
	})

	t.Run("strict mode requires the preacher floor", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		bind(t, e, "alice", rootAddr, now)

		// alice is bound but has no stake: bob cannot bind to her.
		require.ErrorIs(t, e.BindReferrer("bob", "alice", now), ErrInvalidReferrer)

		stake(t, e, "alice", 50, 0, now) // floor is 10
		require.NoError(t, e.BindReferrer("bob", "alice", now))
	})

	t.Run("strict staking requirement can be disabled", func(t *testing.T) {
		e, owner, _ := newTestEngine(t)
		require.NoError(t, e.SetRequireReferrerStake(owner, false, now))

		bind(t, e, "alice", rootAddr, now)
		// No stake needed once the requirement is off.
		require.NoError(t, e.BindReferrer("bob", "alice", now))
	})
}

func TestExemptionPersistence(t *testing.T) {
	e, owner, _ := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)

	// alice is admitted while relaxed mode is active and never stakes.
	require.NoError(t, e.SetAdmissionMode(owner, true, now))
	bind(t, e, "alice", rootAddr, now)

	info, err := e.AccountInfo("alice")
	require.NoError(t, err)
	require.True(t, info.Exempt)

	// Back to strict: alice stays a valid referral target even though her
	// own stake is below the strict threshold.
	require.NoError(t, e.SetAdmissionMode(owner, false, now))
	require.NoError(t, e.BindReferrer("bob", "alice", now))

	t.Run("exemption is inherited down the chain", func(t *testing.T) {
		// bob inherited the flag from alice, so carol can bind to bob even
		// though bob never stakes either.
		info, err := e.AccountInfo("bob")
		require.NoError(t, err)
		require.True(t, info.Exempt)

		require.NoError(t, e.BindReferrer("carol", "bob", now))
		info, err = e.AccountInfo("carol")
		require.NoError(t, err)
		require.True(t, info.Exempt)
	})

	t.Run("binding to a non-exempt referrer grants nothing", func(t *testing.T) {
		bind(t, e, "dave", rootAddr, now)
		info, err := e.AccountInfo("dave")
		require.NoError(t, err)
		require.False(t, info.Exempt)
	})
}

func TestBindFriend(t *testing.T) {
	e, _, sink := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, e.BindFriend("alice", "carol", now))
	require.ErrorIs(t, e.BindFriend("alice", "dave", now), ErrAlreadyBound)
	require.Error(t, e.BindFriend("bob", "bob", now))

	require.Len(t, sink.ofType(types.EventFriendBound), 1)

	t.Run("friend is independent of referrer", func(t *testing.T) {
		info, err := e.AccountInfo("alice")
		require.NoError(t, err)
		require.Equal(t, "carol", info.Friend)
		require.Empty(t, info.Referrer)
	})
}

func TestTeamKpiPush(t *testing.T) {
	e, _, _ := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)

	// root <- alice <- bob <- carol
	bind(t, e, "alice", rootAddr, now)
	stake(t, e, "alice", 50, 0, now)
	bind(t, e, "bob", "alice", now)
	stake(t, e, "bob", 50, 0, now)
	bind(t, e, "carol", "bob", now)

	stake(t, e, "carol", 1_000, 0, now)

	kpi := func(addr string) sdkmath.Int {
		info, err := e.AccountInfo(addr)
		require.NoError(t, err)
		return info.TeamKpi
	}

	// carol's stake is pushed to every ancestor, not to herself.
	require.True(t, kpi("carol").IsZero())
	require.True(t, kpi("bob").Equal(sdkmath.NewInt(1_000)))
	require.True(t, kpi("alice").Equal(sdkmath.NewInt(1_050)))
	require.True(t, kpi(rootAddr).Equal(sdkmath.NewInt(1_100)))
}

func TestAncestorsBounded(t *testing.T) {
	p := testParams()
	p.MaxReferralDepth = 3
	sink := &eventSink{}
	e, owner, err := New(p, rootAddr, feeSink, sink)
	require.NoError(t, err)
	require.NoError(t, e.SetRequireReferrerStake(owner, false, time.Unix(0, 0)))

	now := time.Unix(1_700_000_000, 0)
	chain := []string{"a", "b", "c", "d", "e"}
	prev := rootAddr
	for _, addr := range chain {
		bind(t, e, addr, prev, now)
		prev = addr
	}

	stake(t, e, "e", 100, 0, now)

	// Depth 3: only d, c and b receive KPI; a and root are out of range.
	for addr, want := range map[string]int64{"d": 100, "c": 100, "b": 100, "a": 0} {
		info, err := e.AccountInfo(addr)
		require.NoError(t, err)
		require.True(t, info.TeamKpi.Equal(sdkmath.NewInt(want)), "kpi of %s", addr)
	}
	rootInfo, err := e.AccountInfo(rootAddr)
	require.NoError(t, err)
	require.True(t, rootInfo.TeamKpi.IsZero())
}

func TestStakeRequiresBinding(t *testing.T) {
	e, _, _ := newTestEngine(t)
	now := time.Unix(1_700_000_000, 0)

	_, err := e.Stake("alice", sdkmath.NewInt(100), 0, bigReserve, now)
	require.ErrorIs(t, err, ErrReferrerNotBound)

	t.Run("root itself may stake unbound", func(t *testing.T) {
		_, err := e.Stake(rootAddr, sdkmath.NewInt(100), 0, bigReserve, now)
		require.NoError(t, err)
	})

	t.Run("unknown period selector", func(t *testing.T) {
		bind(t, e, "alice", rootAddr, now)
		_, err := e.Stake("alice", sdkmath.NewInt(100), 9, bigReserve, now)
		require.ErrorIs(t, err, ErrPeriodInvalid)
	})
}

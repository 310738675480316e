package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
	"github.com/syilabs-io/syi-staking-engine/testutil"
)

func TestEventProcessorPersistsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		env.svc.StartEventProcessor(ctx)
		close(done)
	}()

	account := testutil.RandomAddress()
	now := time.Now().UTC()
	env.svc.recordEvent(engine.EventTierSet{
		Account:  account,
		PrevRank: types.RankNone,
		NewRank:  types.RankV3,
		Actor:    "tier-manager",
		At:       now,
	})
	env.svc.recordEvent(engine.EventFriendBound{
		Account: account,
		Friend:  testutil.RandomAddress(),
		At:      now,
	})

	require.Eventually(t, func() bool {
		events, _ := env.db.GetEventsByAccount(context.Background(), account, 10)
		return len(events) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := env.db.GetEventsByAccount(context.Background(), account, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, types.EventTierSet.String(), events[0].EventType)
	require.NotEmpty(t, events[0].TraceId)
	require.NotEmpty(t, events[0].Payload)

	require.Equal(t, []string{
		types.EventTierSet.String(),
		types.EventFriendBound.String(),
	}, env.queue.publishedTypes())

	// Tier changes additionally land in the audit collection.
	audits, err := env.db.GetTierAuditsByAccount(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, types.RankNone.String(), audits[0].PrevRank)
	require.Equal(t, types.RankV3.String(), audits[0].NewRank)
}

func TestEventProcessorDrainsOnShutdown(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	// Buffer events before the processor starts, then cancel immediately: the
	// drain loop must still flush them.
	account := testutil.RandomAddress()
	for range 5 {
		env.svc.recordEvent(engine.EventStakeMatured{
			Account:  account,
			Index:    0,
			Maturity: time.Now().UTC(),
			At:       time.Now().UTC(),
		})
	}
	cancel()

	done := make(chan struct{})
	go func() {
		env.svc.StartEventProcessor(ctx)
		close(done)
	}()
	<-done

	events, err := env.db.GetEventsByAccount(context.Background(), account, 10)
	require.NoError(t, err)
	require.Len(t, events, 5)
}

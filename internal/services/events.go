package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

const eventProcessorSize = 1024

// recordEvent is the engine's Recorder. It runs with the engine lock held, so
// it only hands the event off; a full buffer drops the event rather than
// stalling the ledger.
func (s *Service) recordEvent(ev engine.Event) {
	select {
	case s.eventProcessor <- ev:
	default:
		log.Warn().
			Str("event_type", string(ev.EventType())).
			Msg("Event buffer full, dropping observability record")
	}
}

// StartEventProcessor drains emitted events: each one is persisted as an
// audit document and published to the queue. Blocks until the context is
// cancelled and the buffer is empty.
func (s *Service) StartEventProcessor(ctx context.Context) {
	for {
		select {
		case ev := <-s.eventProcessor:
			s.processEvent(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-s.eventProcessor:
					s.processEvent(context.WithoutCancel(ctx), ev)
				default:
					log.Ctx(ctx).Info().Msg("Event processor stopped")
					return
				}
			}
		}
	}
}

func (s *Service) processEvent(ctx context.Context, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", string(ev.EventType())).
			Msg("Failed to marshal event")
		return
	}

	messageId := uuid.New().String()
	doc := &model.EventDocument{
		EventType: string(ev.EventType()),
		Account:   eventAccount(ev),
		Payload:   payload,
		TraceId:   messageId,
		EmittedAt: time.Now().UTC(),
	}
	if err := s.db.SaveEvents(ctx, []*model.EventDocument{doc}); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("event_type", doc.EventType).
			Msg("Failed to persist event")
	}

	s.queueManager.PublishEvent(doc.EventType, messageId, payload)

	// Tier changes additionally land in the dedicated audit collection.
	switch tev := ev.(type) {
	case engine.EventTierSet:
		s.saveTierAudit(ctx, tev.Account, tev.PrevRank.String(), tev.NewRank.String(), tev.Actor, tev.At)
	case engine.EventTierRemoved:
		s.saveTierAudit(ctx, tev.Account, tev.PrevRank.String(), types.RankNone.String(), tev.Actor, tev.At)
	}
}

func (s *Service) saveTierAudit(ctx context.Context, account, prev, next, actor string, at time.Time) {
	audit := &model.TierAuditDocument{
		Account:  account,
		PrevRank: prev,
		NewRank:  next,
		Actor:    actor,
		At:       at,
	}
	if err := s.db.SaveTierAudit(ctx, audit); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("account", account).
			Msg("Failed to persist tier audit")
	}
}

// eventAccount extracts the account an event primarily concerns, for the
// per-account audit index.
func eventAccount(ev engine.Event) string {
	switch e := ev.(type) {
	case engine.EventStakeOpened:
		return e.Account
	case engine.EventStakeClosed:
		return e.Account
	case engine.EventInterestWithdrawn:
		return e.Account
	case engine.EventStakeMatured:
		return e.Account
	case engine.EventAdmissionRejected:
		return e.Account
	case engine.EventReferrerBound:
		return e.Account
	case engine.EventFriendBound:
		return e.Account
	case engine.EventTierSet:
		return e.Account
	case engine.EventTierRemoved:
		return e.Account
	case engine.EventCommissionPaid:
		return e.Beneficiary
	case engine.EventEligibilityCheckFailed:
		return e.Ancestor
	default:
		return ""
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
	"github.com/syilabs-io/syi-staking-engine/internal/utils/poller"
)

// StartPollers launches the maturity checker, the admission snapshot
// compactor and the state persister.
func (s *Service) StartPollers(ctx context.Context) {
	maturityPoller := poller.NewPoller(
		s.cfg.Poller.MaturityCheckInterval,
		metrics.RecordPollerDuration("maturity_checker", s.checkMaturedStakes),
	)
	go maturityPoller.Start(ctx)

	compactionPoller := poller.NewPoller(
		s.cfg.Poller.SnapshotCompactionInterval,
		metrics.RecordPollerDuration("snapshot_compaction", s.compactSnapshots),
	)
	go compactionPoller.Start(ctx)

	statePoller := poller.NewPoller(
		s.cfg.Poller.StatePersistInterval,
		metrics.RecordPollerDuration("state_persist", s.persistStatePoll),
	)
	go statePoller.Start(ctx)
}

// checkMaturedStakes reports open stakes past their maturity and emits one
// observability record per stake the first time it is seen matured.
func (s *Service) checkMaturedStakes(ctx context.Context) error {
	now := time.Now().UTC()
	matured := s.engine.MaturedStakes(now, s.cfg.Poller.MaturedStakesLimit)
	metrics.RecordMaturedStakesCount(len(matured))

	s.maturedMu.Lock()
	defer s.maturedMu.Unlock()
	for _, stake := range matured {
		key := fmt.Sprintf("%s/%d", stake.Owner, stake.Index)
		if _, seen := s.maturedAnnounced[key]; seen {
			continue
		}
		s.maturedAnnounced[key] = struct{}{}
		s.recordEvent(engine.EventStakeMatured{
			Account:  stake.Owner,
			Index:    stake.Index,
			Maturity: stake.Maturity,
			At:       now,
		})
		log.Ctx(ctx).Info().
			Str("account", stake.Owner).
			Int("index", stake.Index).
			Time("maturity", stake.Maturity).
			Msg("Stake matured")
	}
	return nil
}

// compactSnapshots rolls admission snapshots older than the window into a
// single baseline entry.
func (s *Service) compactSnapshots(ctx context.Context) error {
	removed := s.engine.CompactSnapshots(time.Now().UTC())
	if removed > 0 {
		log.Ctx(ctx).Debug().Int("removed", removed).Msg("Compacted admission snapshots")
	}
	return nil
}

func (s *Service) persistStatePoll(ctx context.Context) error {
	s.persistState(ctx)
	return nil
}

// persistState snapshots the engine into mongo. Best effort: a snapshot that
// cannot be taken (settlement in flight) or saved is only logged, the next
// mutation or poll tick will retry.
func (s *Service) persistState(ctx context.Context) {
	st, err := s.engine.ExportState()
	if err != nil {
		if errors.Is(err, engine.ErrSettlementInFlight) {
			log.Ctx(ctx).Debug().Msg("Skipping state persist, settlement in flight")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("Failed to export engine state")
		return
	}

	payload, err := json.Marshal(st)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to encode engine state")
		return
	}

	doc := &model.EngineStateDocument{
		Id:            model.LatestEngineStateId,
		ParamsVersion: st.Params.Version,
		Payload:       payload,
		SavedAt:       time.Now().UTC(),
	}
	if err := s.db.SaveEngineState(ctx, doc); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to persist engine state")
	}
}

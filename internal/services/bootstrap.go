package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/db"
	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
)

// Bootstrap restores the persisted engine state and reconciles the settlement
// journal. Must run before the API server starts taking traffic.
func (s *Service) Bootstrap(ctx context.Context) error {
	logger := log.Ctx(ctx)

	doc, err := s.db.GetLatestEngineState(ctx)
	switch {
	case db.IsNotFoundError(err):
		logger.Info().Msg("No persisted engine state, starting from genesis config")
	case err != nil:
		return fmt.Errorf("failed to load engine state: %w", err)
	default:
		var st engine.State
		if err := json.Unmarshal(doc.Payload, &st); err != nil {
			return fmt.Errorf("failed to decode persisted engine state: %w", err)
		}
		if err := s.engine.RestoreState(&st); err != nil {
			return fmt.Errorf("failed to restore engine state: %w", err)
		}
		logger.Info().
			Uint64("params_version", st.Params.Version).
			Time("saved_at", doc.SavedAt).
			Msg("Restored engine state")
	}

	// A PREPARED journal entry means we crashed between phase 1 and the
	// status update. The persisted engine snapshot never contains a half-open
	// plan (export refuses mid-settlement), so the restored ledger still owns
	// those funds and the entry is simply closed out as aborted.
	pending, err := s.db.GetSettlementsByStatus(ctx, model.SettlementStatusPrepared)
	if err != nil {
		return fmt.Errorf("failed to load pending settlements: %w", err)
	}
	for _, settlement := range pending {
		logger.Warn().
			Str("settlement_id", settlement.Id).
			Str("account", settlement.Account).
			Int("stake_index", settlement.StakeIndex).
			Msg("Aborting settlement left over from a previous run")
		if err := s.db.UpdateSettlementStatus(ctx, settlement.Id, model.SettlementStatusAborted, ""); err != nil {
			return fmt.Errorf("failed to abort stale settlement %s: %w", settlement.Id, err)
		}
	}

	return nil
}

package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/clients/exchangeclient"
	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

const slippageDenominatorBps = 10_000

// Unstake closes a matured stake: the ledger mutation, the external
// conversion and the payout split run as one two-phase settlement.
func (s *Service) Unstake(ctx context.Context, account string, index int) (*engine.Payout, *types.Error) {
	plan, err := s.engine.PrepareUnstake(account, index, time.Now().UTC())
	if err != nil {
		return nil, toServiceError(err)
	}
	return s.settle(ctx, plan)
}

// WithdrawInterest realizes accrued yield before maturity and resets the
// compounding baseline.
func (s *Service) WithdrawInterest(ctx context.Context, account string, index int) (*engine.Payout, *types.Error) {
	plan, err := s.engine.PrepareInterestWithdrawal(account, index, time.Now().UTC())
	if err != nil {
		return nil, toServiceError(err)
	}
	return s.settle(ctx, plan)
}

// settle drives a prepared plan through the external conversion. Any failure
// after phase 1 rolls the ledger back with the compensating abort; the
// journal entry makes the sequence auditable across crashes.
func (s *Service) settle(ctx context.Context, plan *engine.SettlementPlan) (*engine.Payout, *types.Error) {
	logger := log.Ctx(ctx)
	settlementId := uuid.New().String()
	// The whole position converts in one call; Complete splits the proceeds
	// pro rata and taxes only the yield portion.
	amount := plan.Principal.Add(plan.Yield)

	journal := &model.SettlementDocument{
		Id:         settlementId,
		Account:    plan.Account,
		StakeIndex: plan.Index,
		Kind:       string(plan.Kind),
		Amount:     amount.String(),
		Status:     model.SettlementStatusPrepared,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.db.SaveSettlement(ctx, journal); err != nil {
		s.abortPlan(ctx, plan, settlementId, false)
		return nil, types.NewInternalServiceError(err)
	}

	quote, err := s.exchange.Quote(ctx, amount)
	if err != nil {
		logger.Error().Err(err).Str("settlement_id", settlementId).Msg("Exchange quote failed")
		s.abortPlan(ctx, plan, settlementId, true)
		return nil, types.NewError(http.StatusBadGateway, types.ExchangeUnavailable, err)
	}
	minProceeds := quote.
		MulRaw(slippageDenominatorBps - s.cfg.Exchange.SlippageBps).
		QuoRaw(slippageDenominatorBps)

	result, err := s.exchange.Convert(ctx, &exchangeclient.ConvertRequest{
		RequestId:   settlementId,
		Account:     plan.Account,
		Amount:      amount,
		MinProceeds: minProceeds,
	})
	if err != nil {
		logger.Error().Err(err).Str("settlement_id", settlementId).Msg("Exchange conversion failed")
		s.abortPlan(ctx, plan, settlementId, true)
		return nil, types.NewError(http.StatusBadGateway, types.ExchangeUnavailable, err)
	}

	payout, err := s.engine.Complete(plan, result.Proceeds, time.Now().UTC())
	if err != nil {
		// Completion only fails on a finalized or unknown plan; the ledger was
		// not touched, so roll back and surface the inconsistency.
		logger.Error().Err(err).Str("settlement_id", settlementId).Msg("Failed to complete settlement")
		s.abortPlan(ctx, plan, settlementId, true)
		return nil, types.NewInternalServiceError(err)
	}

	if err := s.db.UpdateSettlementStatus(ctx, settlementId, model.SettlementStatusCompleted, result.Proceeds.String()); err != nil {
		logger.Error().Err(err).Str("settlement_id", settlementId).Msg("Failed to mark settlement completed")
	}

	metrics.RecordSettlement(string(plan.Kind), true)
	s.persistState(ctx)
	s.recordTotalPrincipal()

	logger.Info().
		Str("settlement_id", settlementId).
		Str("account", plan.Account).
		Int("index", plan.Index).
		Str("kind", string(plan.Kind)).
		Str("proceeds", result.Proceeds.String()).
		Str("net", payout.Net.String()).
		Msg("Settlement completed")
	return payout, nil
}

func (s *Service) abortPlan(ctx context.Context, plan *engine.SettlementPlan, settlementId string, journaled bool) {
	if err := s.engine.Abort(plan); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("settlement_id", settlementId).
			Msg("Failed to abort settlement plan")
	}
	if journaled {
		if err := s.db.UpdateSettlementStatus(ctx, settlementId, model.SettlementStatusAborted, ""); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("settlement_id", settlementId).
				Msg("Failed to mark settlement aborted")
		}
	}
	metrics.RecordSettlement(string(plan.Kind), false)
}

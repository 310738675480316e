package services

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

// Admin operations run under adminMu so a tier manager rotation cannot race
// a tier override issued with the outgoing token.

func (s *Service) UpdateRateTable(ctx context.Context, rates []sdkmath.LegacyDec) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetRateTable(s.ownerTok, rates, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "rate table updated")
	return nil
}

func (s *Service) UpdateThresholds(ctx context.Context, thresholds []sdkmath.Int) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetThresholds(s.ownerTok, thresholds, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "tier thresholds updated")
	return nil
}

func (s *Service) UpdatePeriods(ctx context.Context, periods []engine.Period) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetPeriods(s.ownerTok, periods, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "period table updated")
	return nil
}

func (s *Service) UpdateFeeSink(ctx context.Context, feeSink string) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetFeeSink(s.ownerTok, feeSink, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "fee sink updated")
	return nil
}

func (s *Service) UpdateAdmissionMode(ctx context.Context, relaxed bool) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetAdmissionMode(s.ownerTok, relaxed, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "admission mode updated")
	return nil
}

func (s *Service) UpdateRequireReferrerStake(ctx context.Context, required bool) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetRequireReferrerStake(s.ownerTok, required, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "referrer stake requirement updated")
	return nil
}

// RotateTierManager mints a fresh tier manager capability. Tokens issued
// before the rotation stop working immediately.
func (s *Service) RotateTierManager(ctx context.Context) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	tok, err := s.engine.SetTierManagerRole(s.ownerTok)
	if err != nil {
		return toServiceError(err)
	}
	s.tierTok = tok
	s.afterAdminChange(ctx, "tier manager rotated")
	return nil
}

func (s *Service) SetTierOverride(ctx context.Context, account string, rank types.Rank) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.SetTier(s.tierTok, account, rank, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "tier override set")
	return nil
}

func (s *Service) RemoveTierOverride(ctx context.Context, account string) *types.Error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	if err := s.engine.RemoveTier(s.tierTok, account, time.Now().UTC()); err != nil {
		return toServiceError(err)
	}
	s.afterAdminChange(ctx, "tier override removed")
	return nil
}

func (s *Service) afterAdminChange(ctx context.Context, op string) {
	s.persistState(ctx)
	log.Ctx(ctx).Info().
		Str("op", op).
		Uint64("params_version", s.engine.Params().Version).
		Msg("Admin operation applied")
}

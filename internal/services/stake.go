package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
	"github.com/syilabs-io/syi-staking-engine/pkg"
)

// Stake opens a new stake record for the account. The external reserve backs
// the admission decision; a reserve that cannot be read admits nothing once
// inflow history exists.
func (s *Service) Stake(
	ctx context.Context,
	account string,
	amount sdkmath.Int,
	selector uint32,
) (*engine.StakeRecord, *types.Error) {
	if err := pkg.ValidateAddress(account); err != nil {
		return nil, types.NewValidationFailedError(err)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.ValidationError, "amount must be positive")
	}

	balance, err := s.token.GetBalance(ctx, account)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("account", account).Msg("Failed to check token balance")
		return nil, types.NewError(http.StatusBadGateway, types.ExchangeUnavailable, err)
	}
	if balance.LT(amount) {
		return nil, types.NewErrorWithMsg(http.StatusUnprocessableEntity, types.ValidationError,
			"token balance below requested stake")
	}

	reserve := s.fetchReserve(ctx)

	record, err := s.engine.Stake(account, amount, selector, reserve, time.Now().UTC())
	if err != nil {
		if errors.Is(err, engine.ErrAdmissionRejected) {
			metrics.RecordAdmissionRejected()
		}
		return nil, toServiceError(err)
	}

	s.persistState(ctx)
	s.recordTotalPrincipal()

	log.Ctx(ctx).Info().
		Str("account", account).
		Int("index", record.Index).
		Str("principal", record.Principal.String()).
		Uint32("selector", selector).
		Msg("Stake opened")
	return record, nil
}

// Admission reports the controller state for an account against the current
// external reserve.
func (s *Service) Admission(ctx context.Context, account string) engine.AdmissionInfo {
	reserve := s.fetchReserve(ctx)
	return s.engine.AdmissionFor(account, reserve, time.Now().UTC())
}

// fetchReserve reads the external reserve; failures are logged and reported
// as zero, which makes the admission controller fail closed.
func (s *Service) fetchReserve(ctx context.Context) sdkmath.Int {
	reserve, err := s.token.GetReserve(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to read external reserve, admission will fail closed")
		return sdkmath.ZeroInt()
	}
	return reserve
}

func (s *Service) recordTotalPrincipal() {
	total := s.engine.TotalPrincipal()
	whole, err := sdkmath.LegacyNewDecFromIntWithPrec(total, 18).Float64()
	if err != nil {
		return
	}
	metrics.RecordTotalPrincipal(whole)
}

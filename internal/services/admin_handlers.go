package services

import (
	"fmt"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/engine"
	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

type rateTableRequest struct {
	Rates []string `json:"rates"`
}

type thresholdsRequest struct {
	Thresholds []string `json:"thresholds"`
}

type periodRequest struct {
	Selector     uint32 `json:"selector"`
	Duration     string `json:"duration"`
	CompoundUnit string `json:"compound_unit"`
	Multiplier   string `json:"multiplier"`
}

type periodsRequest struct {
	Periods []periodRequest `json:"periods"`
}

type feeSinkRequest struct {
	Address string `json:"address"`
}

type admissionModeRequest struct {
	Relaxed bool `json:"relaxed"`
}

type referrerStakeRequest struct {
	Required bool `json:"required"`
}

type setTierRequest struct {
	Rank string `json:"rank"`
}

func (s *Service) handleUpdateRateTable(w http.ResponseWriter, r *http.Request) {
	var req rateTableRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	rates := make([]sdkmath.LegacyDec, 0, len(req.Rates))
	for i, raw := range req.Rates {
		rate, err := sdkmath.LegacyNewDecFromStr(raw)
		if err != nil {
			writeErrorResponse(w, r, types.NewValidationFailedError(
				fmt.Errorf("rate %d: %w", i, err)))
			return
		}
		rates = append(rates, rate)
	}
	if terr := s.UpdateRateTable(r.Context(), rates); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholdsRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	thresholds := make([]sdkmath.Int, 0, len(req.Thresholds))
	for i, raw := range req.Thresholds {
		threshold, ok := sdkmath.NewIntFromString(raw)
		if !ok {
			writeErrorResponse(w, r, types.NewErrorWithMsg(
				http.StatusBadRequest, types.ValidationError,
				fmt.Sprintf("threshold %d must be a base-10 integer", i)))
			return
		}
		thresholds = append(thresholds, threshold)
	}
	if terr := s.UpdateThresholds(r.Context(), thresholds); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleUpdatePeriods(w http.ResponseWriter, r *http.Request) {
	var req periodsRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	periods := make([]engine.Period, 0, len(req.Periods))
	for i, raw := range req.Periods {
		period, err := parsePeriod(raw)
		if err != nil {
			writeErrorResponse(w, r, types.NewValidationFailedError(
				fmt.Errorf("period %d: %w", i, err)))
			return
		}
		periods = append(periods, period)
	}
	if terr := s.UpdatePeriods(r.Context(), periods); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleUpdateFeeSink(w http.ResponseWriter, r *http.Request) {
	var req feeSinkRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	if terr := s.UpdateFeeSink(r.Context(), req.Address); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleUpdateAdmissionMode(w http.ResponseWriter, r *http.Request) {
	var req admissionModeRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	if terr := s.UpdateAdmissionMode(r.Context(), req.Relaxed); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleUpdateReferrerStakeRequirement(w http.ResponseWriter, r *http.Request) {
	var req referrerStakeRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	if terr := s.UpdateRequireReferrerStake(r.Context(), req.Required); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, newParamsResponse(s.engine.Params()))
}

func (s *Service) handleRotateTierManager(w http.ResponseWriter, r *http.Request) {
	if terr := s.RotateTierManager(r.Context()); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	writeResponse(w, r, http.StatusOK, "tier manager rotated")
}

func (s *Service) handleSetTier(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	var req setTierRequest
	if terr := s.decodeRequest(w, r, &req); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	rank, err := types.ParseRank(req.Rank)
	if err != nil {
		writeErrorResponse(w, r, types.NewValidationFailedError(err))
		return
	}
	if terr := s.SetTierOverride(r.Context(), account, rank); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	info, err := s.engine.RankInfoFor(account)
	if err != nil {
		writeErrorResponse(w, r, toServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, info)
}

func (s *Service) handleRemoveTier(w http.ResponseWriter, r *http.Request) {
	account, terr := accountPathParam(r)
	if terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	if terr := s.RemoveTierOverride(r.Context(), account); terr != nil {
		writeErrorResponse(w, r, terr)
		return
	}
	info, err := s.engine.RankInfoFor(account)
	if err != nil {
		writeErrorResponse(w, r, toServiceError(err))
		return
	}
	writeResponse(w, r, http.StatusOK, info)
}

func parsePeriod(raw periodRequest) (engine.Period, error) {
	duration, err := time.ParseDuration(raw.Duration)
	if err != nil {
		return engine.Period{}, fmt.Errorf("invalid duration: %w", err)
	}
	compoundUnit, err := time.ParseDuration(raw.CompoundUnit)
	if err != nil {
		return engine.Period{}, fmt.Errorf("invalid compound unit: %w", err)
	}
	multiplier, err := sdkmath.LegacyNewDecFromStr(raw.Multiplier)
	if err != nil {
		return engine.Period{}, fmt.Errorf("invalid multiplier: %w", err)
	}
	return engine.Period{
		Selector:     raw.Selector,
		Duration:     duration,
		CompoundUnit: compoundUnit,
		Multiplier:   multiplier,
	}, nil
}

// paramsResponse is the wire form of the engine parameters. Durations render
// as Go duration strings, amounts and rates as decimal strings.
type paramsResponse struct {
	Version              uint64           `json:"version"`
	Periods              []periodRequest  `json:"periods"`
	TierThresholds       []string         `json:"tier_thresholds"`
	TierRates            []string         `json:"tier_rates"`
	FriendRate           string           `json:"friend_rate"`
	RedemptionFeeRate    string           `json:"redemption_fee_rate"`
	MinYield             string           `json:"min_yield"`
	PreacherFloor        string           `json:"preacher_floor"`
	AdmissionWindow      string           `json:"admission_window"`
	AdmissionCapFraction string           `json:"admission_cap_fraction"`
	PerTxCeiling         string           `json:"per_tx_ceiling"`
	AccountLifetimeCap   string           `json:"account_lifetime_cap"`
	RequireReferrerStake bool             `json:"require_referrer_stake"`
	RelaxedBinding       bool             `json:"relaxed_binding"`
	MaxReferralDepth     int              `json:"max_referral_depth"`
}

func newParamsResponse(p engine.Params) paramsResponse {
	periods := make([]periodRequest, 0, len(p.Periods))
	for _, period := range p.Periods {
		periods = append(periods, periodRequest{
			Selector:     period.Selector,
			Duration:     period.Duration.String(),
			CompoundUnit: period.CompoundUnit.String(),
			Multiplier:   period.Multiplier.String(),
		})
	}
	thresholds := make([]string, 0, len(p.TierThresholds))
	for _, threshold := range p.TierThresholds {
		thresholds = append(thresholds, threshold.String())
	}
	rates := make([]string, 0, len(p.TierRates))
	for _, rate := range p.TierRates {
		rates = append(rates, rate.String())
	}
	return paramsResponse{
		Version:              p.Version,
		Periods:              periods,
		TierThresholds:       thresholds,
		TierRates:            rates,
		FriendRate:           p.FriendRate.String(),
		RedemptionFeeRate:    p.RedemptionFeeRate.String(),
		MinYield:             p.MinYield.String(),
		PreacherFloor:        p.PreacherFloor.String(),
		AdmissionWindow:      p.AdmissionWindow.String(),
		AdmissionCapFraction: p.AdmissionCapFraction.String(),
		PerTxCeiling:         p.PerTxCeiling.String(),
		AccountLifetimeCap:   p.AccountLifetimeCap.String(),
		RequireReferrerStake: p.RequireReferrerStake,
		RelaxedBinding:       p.RelaxedBinding,
		MaxReferralDepth:     p.MaxReferralDepth,
	}
}

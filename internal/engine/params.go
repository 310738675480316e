package engine

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

const (
	defaultCompoundUnit    = 24 * time.Hour
	defaultAdmissionWindow = 60 * time.Second
	defaultMaxReferralDepth = 50
)

// Period is one entry of the staking period table: how long a stake is locked
// and how fast it compounds while locked.
type Period struct {
	Selector     uint32
	Duration     time.Duration
	CompoundUnit time.Duration
	// Multiplier is the growth factor per compound unit, e.g. 1.015.
	Multiplier sdkmath.LegacyDec
}

// Params is the versioned, administrator-owned configuration of the engine.
// It is replaced atomically through admin operations; pure calculations read
// it by reference and never mutate it.
type Params struct {
	Version uint64

	Periods []Period

	// TierThresholds[i] is the minimum team KPI for rank V(i+1).
	TierThresholds []sdkmath.Int
	// TierRates[i] is the cumulative commission rate awarded at rank V(i+1),
	// as a fraction of the yield portion of settlement proceeds. The last
	// entry is the total commission pool percentage.
	TierRates []sdkmath.LegacyDec

	FriendRate        sdkmath.LegacyDec
	RedemptionFeeRate sdkmath.LegacyDec

	// MinYield is the dust threshold below which interest withdrawal is refused.
	MinYield sdkmath.Int
	// PreacherFloor is the minimum own stake for an account to receive tiered
	// commission or, under strict mode, to be bound as a referrer.
	PreacherFloor sdkmath.Int

	AdmissionWindow      time.Duration
	AdmissionCapFraction sdkmath.LegacyDec
	PerTxCeiling         sdkmath.Int
	AccountLifetimeCap   sdkmath.Int

	// RequireReferrerStake enables the strict staking requirement for referrer
	// binding. RelaxedBinding suspends referrer eligibility checks entirely;
	// accounts bound while it is active keep a permanent exemption.
	RequireReferrerStake bool
	RelaxedBinding       bool

	MaxReferralDepth int
}

func tokens(n int64) sdkmath.Int {
	return sdkmath.NewIntWithDecimal(n, 18)
}

// DefaultParams mirrors the mainnet deployment configuration of the original
// system: four lock periods with daily 1.5% compounding, seven commission
// tiers up to 35%, a 5% friend share and a 1% redemption fee.
func DefaultParams() Params {
	return Params{
		Version: 1,
		Periods: []Period{
			{Selector: 0, Duration: 24 * time.Hour, CompoundUnit: defaultCompoundUnit, Multiplier: sdkmath.LegacyMustNewDecFromStr("1.015")},
			{Selector: 1, Duration: 7 * 24 * time.Hour, CompoundUnit: defaultCompoundUnit, Multiplier: sdkmath.LegacyMustNewDecFromStr("1.015")},
			{Selector: 2, Duration: 15 * 24 * time.Hour, CompoundUnit: defaultCompoundUnit, Multiplier: sdkmath.LegacyMustNewDecFromStr("1.015")},
			{Selector: 3, Duration: 30 * 24 * time.Hour, CompoundUnit: defaultCompoundUnit, Multiplier: sdkmath.LegacyMustNewDecFromStr("1.015")},
		},
		TierThresholds: []sdkmath.Int{
			tokens(5_000), tokens(10_000), tokens(30_000), tokens(60_000),
			tokens(100_000), tokens(300_000), tokens(500_000),
		},
		TierRates: []sdkmath.LegacyDec{
			sdkmath.LegacyMustNewDecFromStr("0.05"),
			sdkmath.LegacyMustNewDecFromStr("0.10"),
			sdkmath.LegacyMustNewDecFromStr("0.15"),
			sdkmath.LegacyMustNewDecFromStr("0.20"),
			sdkmath.LegacyMustNewDecFromStr("0.25"),
			sdkmath.LegacyMustNewDecFromStr("0.30"),
			sdkmath.LegacyMustNewDecFromStr("0.35"),
		},
		FriendRate:           sdkmath.LegacyMustNewDecFromStr("0.05"),
		RedemptionFeeRate:    sdkmath.LegacyMustNewDecFromStr("0.01"),
		MinYield:             sdkmath.NewInt(10_000_000_000_000_000), // 0.01 token
		PreacherFloor:        tokens(100),
		AdmissionWindow:      defaultAdmissionWindow,
		AdmissionCapFraction: sdkmath.LegacyMustNewDecFromStr("0.10"),
		PerTxCeiling:         tokens(10_000),
		AccountLifetimeCap:   tokens(100_000),
		RequireReferrerStake: true,
		RelaxedBinding:       false,
		MaxReferralDepth:     defaultMaxReferralDepth,
	}
}

func (p Params) Validate() error {
	if len(p.Periods) == 0 {
		return fmt.Errorf("at least one staking period is required")
	}
	seen := make(map[uint32]bool, len(p.Periods))
	for _, period := range p.Periods {
		if seen[period.Selector] {
			return fmt.Errorf("duplicate period selector %d", period.Selector)
		}
		seen[period.Selector] = true
		if period.Duration <= 0 {
			return fmt.Errorf("period %d duration must be positive", period.Selector)
		}
		if period.CompoundUnit <= 0 {
			return fmt.Errorf("period %d compound unit must be positive", period.Selector)
		}
		if period.Multiplier.IsNil() || !period.Multiplier.GT(sdkmath.LegacyOneDec()) {
			return fmt.Errorf("period %d multiplier must exceed 1", period.Selector)
		}
	}

	if len(p.TierThresholds) != types.NumRanks {
		return fmt.Errorf("expected %d tier thresholds, got %d", types.NumRanks, len(p.TierThresholds))
	}
	if len(p.TierRates) != types.NumRanks {
		return fmt.Errorf("expected %d tier rates, got %d", types.NumRanks, len(p.TierRates))
	}
	for i := range p.TierThresholds {
		if p.TierThresholds[i].IsNil() || p.TierThresholds[i].IsNegative() {
			return fmt.Errorf("tier threshold %d must be non-negative", i)
		}
		if i > 0 && !p.TierThresholds[i].GT(p.TierThresholds[i-1]) {
			return fmt.Errorf("tier thresholds must be strictly ascending")
		}
	}
	for i := range p.TierRates {
		if p.TierRates[i].IsNil() || p.TierRates[i].IsNegative() {
			return fmt.Errorf("tier rate %d must be non-negative", i)
		}
		if i > 0 && !p.TierRates[i].GT(p.TierRates[i-1]) {
			return fmt.Errorf("tier rates must be strictly ascending")
		}
	}
	maxRate := p.TierRates[types.NumRanks-1]
	if !maxRate.LT(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("maximum commission rate must be below 100%%")
	}

	if p.FriendRate.IsNil() || p.FriendRate.IsNegative() {
		return fmt.Errorf("friend rate must be non-negative")
	}
	if p.RedemptionFeeRate.IsNil() || p.RedemptionFeeRate.IsNegative() {
		return fmt.Errorf("redemption fee rate must be non-negative")
	}
	if maxRate.Add(p.FriendRate).Add(p.RedemptionFeeRate).GTE(sdkmath.LegacyOneDec()) {
		return fmt.Errorf("commission, friend and fee rates must sum below 100%%")
	}

	if p.MinYield.IsNil() || p.MinYield.IsNegative() {
		return fmt.Errorf("min yield must be non-negative")
	}
	if p.PreacherFloor.IsNil() || p.PreacherFloor.IsNegative() {
		return fmt.Errorf("preacher floor must be non-negative")
	}

	if p.AdmissionWindow <= 0 {
		return fmt.Errorf("admission window must be positive")
	}
	if p.AdmissionCapFraction.IsNil() || !p.AdmissionCapFraction.IsPositive() {
		return fmt.Errorf("admission cap fraction must be positive")
	}
	if p.PerTxCeiling.IsNil() || !p.PerTxCeiling.IsPositive() {
		return fmt.Errorf("per-transaction ceiling must be positive")
	}
	if p.AccountLifetimeCap.IsNil() || !p.AccountLifetimeCap.IsPositive() {
		return fmt.Errorf("account lifetime cap must be positive")
	}

	if p.MaxReferralDepth <= 0 {
		return fmt.Errorf("max referral depth must be positive")
	}

	return nil
}

// Period returns the period table entry for the given selector.
func (p Params) Period(selector uint32) (Period, bool) {
	for _, period := range p.Periods {
		if period.Selector == selector {
			return period, true
		}
	}
	return Period{}, false
}

// MaxCommissionRate is the total commission pool percentage, i.e. the rate
// awarded at the highest rank.
func (p Params) MaxCommissionRate() sdkmath.LegacyDec {
	return p.TierRates[types.NumRanks-1]
}

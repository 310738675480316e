package engine

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// StakeRecord is a single locked position. Maturity is fixed at creation and
// never extended; LastReset is the compounding baseline and advances only
// when interim yield is realized.
type StakeRecord struct {
	Index     int         `json:"index"`
	Owner     string      `json:"owner"`
	Principal sdkmath.Int `json:"principal"`
	Selector  uint32      `json:"selector"`
	Start     time.Time   `json:"start"`
	LastReset time.Time   `json:"last_reset"`
	Maturity  time.Time   `json:"maturity"`
	// Withdrawn accumulates yield realized early through interest withdrawal.
	Withdrawn sdkmath.Int `json:"withdrawn"`
	Closed    bool        `json:"closed"`
	ClosedAt  time.Time   `json:"closed_at,omitempty"`
}

// SupplySnapshot is an append-only log entry of the cumulative principal at
// the moment a stake was accepted. The admission controller reconstructs the
// trailing inflow window from these entries; they are never mutated.
type SupplySnapshot struct {
	At             time.Time   `json:"at"`
	TotalPrincipal sdkmath.Int `json:"total_principal"`
}

// compoundPeriods is the number of whole compound units elapsed since the
// baseline, hard-capped at maturity: no interest accrues past it.
func compoundPeriods(rec *StakeRecord, period Period, now time.Time) uint64 {
	end := now
	if end.After(rec.Maturity) {
		end = rec.Maturity
	}
	if !end.After(rec.LastReset) {
		return 0
	}
	return uint64(end.Sub(rec.LastReset) / period.CompoundUnit)
}

// currentValue computes principal x multiplier^periods.
func currentValue(rec *StakeRecord, period Period, now time.Time) sdkmath.Int {
	periods := compoundPeriods(rec, period, now)
	if periods == 0 {
		return rec.Principal
	}
	return period.Multiplier.Power(periods).MulInt(rec.Principal).TruncateInt()
}

// accruedYield never goes negative: current value >= principal holds for any
// multiplier above 1.
func accruedYield(rec *StakeRecord, period Period, now time.Time) sdkmath.Int {
	return currentValue(rec, period, now).Sub(rec.Principal)
}

// canMature requires the original full period to have elapsed, regardless of
// any interim baseline resets.
func canMature(rec *StakeRecord, period Period, now time.Time) bool {
	return !now.Before(rec.Start.Add(period.Duration))
}

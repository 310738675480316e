package engine

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// recentInflow reconstructs how much principal entered inside the trailing
// admission window, scanning the snapshot log newest-first. The baseline is
// the newest snapshot at or before the window start; with no such snapshot
// the baseline is zero. Unstaking reduces total principal without appending
// a snapshot, so the difference is clamped at zero.
func (e *Engine) recentInflow(now time.Time) sdkmath.Int {
	if len(e.snapshots) == 0 {
		return sdkmath.ZeroInt()
	}

	cutoff := now.Add(-e.params.AdmissionWindow)
	baseline := sdkmath.ZeroInt()
	for i := len(e.snapshots) - 1; i >= 0; i-- {
		if !e.snapshots[i].At.After(cutoff) {
			baseline = e.snapshots[i].TotalPrincipal
			break
		}
	}

	inflow := e.totalPrincipal.Sub(baseline)
	if inflow.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return inflow
}

// maxAdmittable bounds how much new principal the account may stake right
// now. It fails closed: a zero or unknown reserve admits nothing. With no
// snapshots at all there is nothing to throttle and only the per-transaction
// ceiling and the account's lifetime headroom apply.
func (e *Engine) maxAdmittable(acct *Account, reserve sdkmath.Int, now time.Time) sdkmath.Int {
	lifetimeHeadroom := e.params.AccountLifetimeCap.Sub(acct.TotalStaked)
	if lifetimeHeadroom.IsNegative() {
		lifetimeHeadroom = sdkmath.ZeroInt()
	}

	allowed := sdkmath.MinInt(e.params.PerTxCeiling, lifetimeHeadroom)

	if len(e.snapshots) == 0 {
		return allowed
	}

	if reserve.IsNil() || !reserve.IsPositive() {
		return sdkmath.ZeroInt()
	}

	threshold := e.params.AdmissionCapFraction.MulInt(reserve).TruncateInt()
	inflow := e.recentInflow(now)
	if inflow.GTE(threshold) {
		// Admission is fully closed to absorb the supply shock.
		return sdkmath.ZeroInt()
	}

	return sdkmath.MinInt(allowed, threshold.Sub(inflow))
}

// CompactSnapshots rolls every snapshot older than the admission window into
// a single baseline entry. RecentInflow is preserved exactly: the rolled-up
// entry carries the same cumulative principal the newest pre-window snapshot
// carried.
func (e *Engine) CompactSnapshots(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := now.Add(-e.params.AdmissionWindow)
	idx := -1
	for i := len(e.snapshots) - 1; i >= 0; i-- {
		if !e.snapshots[i].At.After(cutoff) {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return 0
	}

	compacted := make([]SupplySnapshot, 0, len(e.snapshots)-idx)
	compacted = append(compacted, e.snapshots[idx])
	compacted = append(compacted, e.snapshots[idx+1:]...)
	removed := len(e.snapshots) - len(compacted)
	e.snapshots = compacted
	return removed
}

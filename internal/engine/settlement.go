package engine

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

type PlanKind string

const (
	PlanUnstake  PlanKind = "UNSTAKE"
	PlanInterest PlanKind = "INTEREST"
)

// SettlementPlan is the phase-1 result of a withdrawal: the ledger has
// already been mutated assuming success, and the plan carries what is needed
// either to complete the payout once the external conversion lands or to
// roll the mutation back if it does not.
type SettlementPlan struct {
	Kind      PlanKind
	Account   string
	Index     int
	Yield     sdkmath.Int
	Principal sdkmath.Int
	At        time.Time

	prevLastReset time.Time
	prevWithdrawn sdkmath.Int
	settled       bool
}

// Payout is the final split of settlement proceeds. Proceeds divide pro rata
// into a principal portion and a yield portion; the friend cut, commission
// pool and redemption fee all come out of the yield portion only.
type Payout struct {
	Proceeds          sdkmath.Int
	PrincipalProceeds sdkmath.Int
	YieldProceeds     sdkmath.Int
	Net               sdkmath.Int
	FriendCut         sdkmath.Int
	Friend            string
	RedemptionFee     sdkmath.Int
	CommissionPool    sdkmath.Int
	Shares            []CommissionShare
	FeeSinkTotal      sdkmath.Int
}

// PrepareUnstake closes a matured stake (phase 1). The record leaves the
// active set and the principal leaves the ledger totals before any external
// call is made; Abort is the compensating rollback.
func (e *Engine) PrepareUnstake(addr string, index int, now time.Time) (*SettlementPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.stakeRecord(addr, index)
	if err != nil {
		return nil, err
	}
	if rec.Closed {
		return nil, ErrStakeClosed
	}
	key := stakeKey{addr: addr, index: index}
	if _, busy := e.inFlight[key]; busy {
		return nil, ErrSettlementInFlight
	}

	period, ok := e.params.Period(rec.Selector)
	if !ok {
		return nil, fmt.Errorf("%w: record selector %d missing from period table",
			ErrPeriodInvalid, rec.Selector)
	}
	if !canMature(rec, period, now) {
		return nil, fmt.Errorf("%w: matures at %s", ErrNotMatured,
			rec.Start.Add(period.Duration).Format(time.RFC3339))
	}

	yield := accruedYield(rec, period, now)

	rec.Closed = true
	rec.ClosedAt = now
	acct := e.accounts[addr]
	acct.ActivePrincipal = acct.ActivePrincipal.Sub(rec.Principal)
	e.totalPrincipal = e.totalPrincipal.Sub(rec.Principal)
	e.inFlight[key] = struct{}{}

	return &SettlementPlan{
		Kind:      PlanUnstake,
		Account:   addr,
		Index:     index,
		Yield:     yield,
		Principal: rec.Principal,
		At:        now,
	}, nil
}

// PrepareInterestWithdrawal realizes accrued yield before maturity (phase 1).
// The compounding baseline resets to now: growth restarts from the original
// principal, so repeated early withdrawal strictly forfeits compound yield
// relative to holding to maturity.
func (e *Engine) PrepareInterestWithdrawal(addr string, index int, now time.Time) (*SettlementPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.stakeRecord(addr, index)
	if err != nil {
		return nil, err
	}
	if rec.Closed {
		return nil, ErrStakeClosed
	}
	key := stakeKey{addr: addr, index: index}
	if _, busy := e.inFlight[key]; busy {
		return nil, ErrSettlementInFlight
	}

	period, ok := e.params.Period(rec.Selector)
	if !ok {
		return nil, fmt.Errorf("%w: record selector %d missing from period table",
			ErrPeriodInvalid, rec.Selector)
	}
	if !now.Before(rec.Maturity) {
		return nil, fmt.Errorf("%w: matured at %s", ErrStakeMatured,
			rec.Maturity.Format(time.RFC3339))
	}

	yield := accruedYield(rec, period, now)
	if yield.LT(e.params.MinYield) {
		return nil, fmt.Errorf("%w: accrued %s, minimum %s",
			ErrDustTooSmall, yield, e.params.MinYield)
	}

	plan := &SettlementPlan{
		Kind:          PlanInterest,
		Account:       addr,
		Index:         index,
		Yield:         yield,
		Principal:     sdkmath.ZeroInt(),
		At:            now,
		prevLastReset: rec.LastReset,
		prevWithdrawn: rec.Withdrawn,
	}

	rec.LastReset = now
	rec.Withdrawn = rec.Withdrawn.Add(yield)
	e.inFlight[key] = struct{}{}

	return plan, nil
}

// Complete finishes a settlement (phase 2a) with the proceeds of the
// external conversion. The proceeds split pro rata between the plan's
// principal and yield; only the yield portion is subject to the friend cut,
// the commission pool and the redemption fee, the principal portion returns
// to the owner whole. The commission pool is conserved exactly: shares plus
// the fee-sink remainder equal the pool.
func (e *Engine) Complete(plan *SettlementPlan, proceeds sdkmath.Int, now time.Time) (*Payout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlan(plan); err != nil {
		return nil, err
	}
	if proceeds.IsNil() || proceeds.IsNegative() {
		return nil, fmt.Errorf("proceeds must be non-negative")
	}

	acct := e.accounts[plan.Account]

	total := plan.Principal.Add(plan.Yield)
	yieldProceeds := sdkmath.ZeroInt()
	if total.IsPositive() && plan.Yield.IsPositive() {
		yieldProceeds = proceeds.Mul(plan.Yield).Quo(total)
	}
	principalProceeds := proceeds.Sub(yieldProceeds)

	friendCut := e.params.FriendRate.MulInt(yieldProceeds).TruncateInt()
	pool := e.params.MaxCommissionRate().MulInt(yieldProceeds).TruncateInt()
	fee := sdkmath.ZeroInt()
	if plan.Kind == PlanInterest {
		fee = e.params.RedemptionFeeRate.MulInt(yieldProceeds).TruncateInt()
	}

	shares, remainder := e.distributeCommission(plan.Account, yieldProceeds, pool, now)

	net := proceeds.Sub(friendCut).Sub(pool).Sub(fee)

	feeSinkTotal := remainder.Add(fee)
	friend := acct.Friend
	if friend == "" {
		// An unbound friend share is forfeited to the fee sink.
		feeSinkTotal = feeSinkTotal.Add(friendCut)
	} else {
		e.account(friend).RealizedProceeds = e.account(friend).RealizedProceeds.Add(friendCut)
	}

	for _, share := range shares {
		e.account(share.Beneficiary).RealizedProceeds =
			e.account(share.Beneficiary).RealizedProceeds.Add(share.Amount)
	}
	e.account(e.feeSink).RealizedProceeds = e.account(e.feeSink).RealizedProceeds.Add(feeSinkTotal)
	acct.RealizedProceeds = acct.RealizedProceeds.Add(net)

	delete(e.inFlight, stakeKey{addr: plan.Account, index: plan.Index})
	plan.settled = true

	for _, share := range shares {
		e.emit(EventCommissionPaid{
			Staker:      plan.Account,
			Beneficiary: share.Beneficiary,
			Depth:       share.Depth,
			Rank:        share.Rank,
			Amount:      share.Amount,
			At:          now,
		})
	}
	switch plan.Kind {
	case PlanUnstake:
		e.emit(EventStakeClosed{
			Account:   plan.Account,
			Index:     plan.Index,
			Principal: plan.Principal,
			Yield:     plan.Yield,
			Proceeds:  proceeds,
			At:        now,
		})
	case PlanInterest:
		e.emit(EventInterestWithdrawn{
			Account:     plan.Account,
			Index:       plan.Index,
			Yield:       plan.Yield,
			Proceeds:    proceeds,
			NewBaseline: plan.At,
			At:          now,
		})
	}

	return &Payout{
		Proceeds:          proceeds,
		PrincipalProceeds: principalProceeds,
		YieldProceeds:     yieldProceeds,
		Net:               net,
		FriendCut:         friendCut,
		Friend:            friend,
		RedemptionFee:     fee,
		CommissionPool:    pool,
		Shares:            shares,
		FeeSinkTotal:      feeSinkTotal,
	}, nil
}

// Abort is the compensating rollback (phase 2b) for a failed external
// conversion. It restores the exact pre-plan ledger state and leaves no
// partial mutation behind.
func (e *Engine) Abort(plan *SettlementPlan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkPlan(plan); err != nil {
		return err
	}

	rec, err := e.stakeRecord(plan.Account, plan.Index)
	if err != nil {
		return err
	}

	switch plan.Kind {
	case PlanUnstake:
		rec.Closed = false
		rec.ClosedAt = time.Time{}
		acct := e.accounts[plan.Account]
		acct.ActivePrincipal = acct.ActivePrincipal.Add(rec.Principal)
		e.totalPrincipal = e.totalPrincipal.Add(rec.Principal)
	case PlanInterest:
		rec.LastReset = plan.prevLastReset
		rec.Withdrawn = plan.prevWithdrawn
	}

	delete(e.inFlight, stakeKey{addr: plan.Account, index: plan.Index})
	plan.settled = true
	return nil
}

func (e *Engine) checkPlan(plan *SettlementPlan) error {
	if plan == nil || plan.settled {
		return fmt.Errorf("settlement plan already finalized")
	}
	if _, busy := e.inFlight[stakeKey{addr: plan.Account, index: plan.Index}]; !busy {
		return fmt.Errorf("no settlement in flight for %s/%d", plan.Account, plan.Index)
	}
	return nil
}

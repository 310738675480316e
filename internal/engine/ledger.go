package engine

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Stake opens a new locked position. The reserve argument is the external
// exchange's settlement-asset reserve, used as the admission-control
// reference liquidity figure; the engine never fetches it itself.
func (e *Engine) Stake(
	addr string,
	principal sdkmath.Int,
	selector uint32,
	reserve sdkmath.Int,
	now time.Time,
) (*StakeRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if principal.IsNil() || !principal.IsPositive() {
		return nil, fmt.Errorf("principal must be positive")
	}

	period, ok := e.params.Period(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPeriodInvalid, selector)
	}

	acct := e.account(addr)
	if addr != e.root && !acct.bound() {
		return nil, ErrReferrerNotBound
	}

	allowed := e.maxAdmittable(acct, reserve, now)
	if principal.GT(allowed) {
		e.emit(EventAdmissionRejected{
			Account:   addr,
			Requested: principal,
			Allowed:   allowed,
			At:        now,
		})
		return nil, fmt.Errorf("%w: requested %s, admittable %s",
			ErrAdmissionRejected, principal, allowed)
	}

	rec := &StakeRecord{
		Index:     len(e.stakes[addr]),
		Owner:     addr,
		Principal: principal,
		Selector:  selector,
		Start:     now,
		LastReset: now,
		Maturity:  now.Add(period.Duration),
		Withdrawn: sdkmath.ZeroInt(),
	}
	e.stakes[addr] = append(e.stakes[addr], rec)

	acct.ActivePrincipal = acct.ActivePrincipal.Add(principal)
	acct.TotalStaked = acct.TotalStaked.Add(principal)
	e.totalPrincipal = e.totalPrincipal.Add(principal)

	e.snapshots = append(e.snapshots, SupplySnapshot{
		At:             now,
		TotalPrincipal: e.totalPrincipal,
	})

	e.pushTeamKpi(addr, principal)

	e.emit(EventStakeOpened{
		Account:   addr,
		Index:     rec.Index,
		Principal: principal,
		Selector:  selector,
		Maturity:  rec.Maturity,
		At:        now,
	})

	return cloneRecord(rec), nil
}

func (e *Engine) stakeRecord(addr string, index int) (*StakeRecord, error) {
	records, ok := e.stakes[addr]
	if !ok || index < 0 || index >= len(records) {
		return nil, ErrStakeNotFound
	}
	return records[index], nil
}

func cloneRecord(rec *StakeRecord) *StakeRecord {
	cp := *rec
	return &cp
}

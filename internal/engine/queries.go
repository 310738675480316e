package engine

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

// AccountInfo is the read model for a single account.
type AccountInfo struct {
	Addr             string        `json:"addr"`
	ActivePrincipal  sdkmath.Int   `json:"active_principal"`
	TotalStaked      sdkmath.Int   `json:"total_staked"`
	TeamKpi          sdkmath.Int   `json:"team_kpi"`
	Referrer         string        `json:"referrer,omitempty"`
	Friend           string        `json:"friend,omitempty"`
	Exempt           bool          `json:"exempt"`
	Qualified        bool          `json:"qualified"`
	RealizedProceeds sdkmath.Int   `json:"realized_proceeds"`
	Rank             RankInfo      `json:"rank"`
	Override         *TierOverride `json:"override,omitempty"`
	OpenStakes       int           `json:"open_stakes"`
}

// RankInfo resolves the two rank sources and reports which one binds.
type RankInfo struct {
	Natural         types.Rank `json:"natural"`
	Override        types.Rank `json:"override"`
	OverrideActive  bool       `json:"override_active"`
	OverrideBinding bool       `json:"override_binding"`
	Effective       types.Rank `json:"effective"`
}

// StakeInfo is the read model for a single stake record at a given time.
type StakeInfo struct {
	Owner        string      `json:"owner"`
	Index        int         `json:"index"`
	Principal    sdkmath.Int `json:"principal"`
	Selector     uint32      `json:"selector"`
	Start        time.Time   `json:"start"`
	LastReset    time.Time   `json:"last_reset"`
	Maturity     time.Time   `json:"maturity"`
	Withdrawn    sdkmath.Int `json:"withdrawn"`
	Closed       bool        `json:"closed"`
	CurrentValue sdkmath.Int `json:"current_value"`
	AccruedYield sdkmath.Int `json:"accrued_yield"`
	CanMature    bool        `json:"can_mature"`
}

// AdmissionInfo is the read model of the admission controller.
type AdmissionInfo struct {
	RecentInflow  sdkmath.Int `json:"recent_inflow"`
	Threshold     sdkmath.Int `json:"threshold"`
	MaxAdmittable sdkmath.Int `json:"max_admittable"`
	Snapshots     int         `json:"snapshots"`
}

func (e *Engine) AccountInfo(addr string) (*AccountInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acct, ok := e.accounts[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}

	open := 0
	for _, rec := range e.stakes[addr] {
		if !rec.Closed {
			open++
		}
	}

	info := &AccountInfo{
		Addr:             acct.Addr,
		ActivePrincipal:  acct.ActivePrincipal,
		TotalStaked:      acct.TotalStaked,
		TeamKpi:          acct.TeamKpi,
		Referrer:         acct.Referrer,
		Friend:           acct.Friend,
		Exempt:           acct.Exempt,
		Qualified:        e.qualified(acct),
		RealizedProceeds: acct.RealizedProceeds,
		Rank:             e.rankInfo(acct),
		OpenStakes:       open,
	}
	if acct.Override != nil {
		cp := *acct.Override
		info.Override = &cp
	}
	return info, nil
}

func (e *Engine) rankInfo(acct *Account) RankInfo {
	natural := e.naturalRank(acct)
	effective, binding := e.effectiveRank(acct)
	info := RankInfo{
		Natural:         natural,
		Effective:       effective,
		OverrideBinding: binding,
	}
	if acct.Override != nil && acct.Override.Active {
		info.Override = acct.Override.Rank
		info.OverrideActive = true
	}
	return info
}

// RankInfo resolves an account's ranks without the full account read model.
func (e *Engine) RankInfoFor(addr string) (RankInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	acct, ok := e.accounts[addr]
	if !ok {
		return RankInfo{}, ErrAccountNotFound
	}
	return e.rankInfo(acct), nil
}

func (e *Engine) StakeInfo(addr string, index int, now time.Time) (*StakeInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, err := e.stakeRecord(addr, index)
	if err != nil {
		return nil, err
	}
	return e.stakeInfo(rec, now)
}

func (e *Engine) StakeInfos(addr string, now time.Time) ([]StakeInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	records, ok := e.stakes[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := make([]StakeInfo, 0, len(records))
	for _, rec := range records {
		info, err := e.stakeInfo(rec, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, nil
}

func (e *Engine) stakeInfo(rec *StakeRecord, now time.Time) (*StakeInfo, error) {
	period, ok := e.params.Period(rec.Selector)
	if !ok {
		return nil, ErrPeriodInvalid
	}
	info := &StakeInfo{
		Owner:        rec.Owner,
		Index:        rec.Index,
		Principal:    rec.Principal,
		Selector:     rec.Selector,
		Start:        rec.Start,
		LastReset:    rec.LastReset,
		Maturity:     rec.Maturity,
		Withdrawn:    rec.Withdrawn,
		Closed:       rec.Closed,
		CurrentValue: rec.Principal,
		AccruedYield: sdkmath.ZeroInt(),
		CanMature:    canMature(rec, period, now),
	}
	if !rec.Closed {
		info.CurrentValue = currentValue(rec, period, now)
		info.AccruedYield = accruedYield(rec, period, now)
	}
	return info, nil
}

// RecentInflow reports principal admitted inside the trailing window.
func (e *Engine) RecentInflow(now time.Time) sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recentInflow(now)
}

// AdmissionFor reports the controller state for one account against the
// given external reserve.
func (e *Engine) AdmissionFor(addr string, reserve sdkmath.Int, now time.Time) AdmissionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A lookup must not create ledger entries, so unknown accounts are
	// evaluated against a transient zero-valued record.
	acct, ok := e.accounts[addr]
	if !ok {
		acct = newAccount(addr)
	}
	threshold := sdkmath.ZeroInt()
	if !reserve.IsNil() && reserve.IsPositive() {
		threshold = e.params.AdmissionCapFraction.MulInt(reserve).TruncateInt()
	}
	return AdmissionInfo{
		RecentInflow:  e.recentInflow(now),
		Threshold:     threshold,
		MaxAdmittable: e.maxAdmittable(acct, reserve, now),
		Snapshots:     len(e.snapshots),
	}
}

// TotalPrincipal is the principal across all open stakes.
func (e *Engine) TotalPrincipal() sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalPrincipal
}

// MaturedStakes lists open records whose original period has elapsed, up to
// the given limit. Used by the maturity checker poller.
func (e *Engine) MaturedStakes(now time.Time, limit int) []StakeInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []StakeInfo
	for _, records := range e.stakes {
		for _, rec := range records {
			if rec.Closed {
				continue
			}
			period, ok := e.params.Period(rec.Selector)
			if !ok || !canMature(rec, period, now) {
				continue
			}
			info, err := e.stakeInfo(rec, now)
			if err != nil {
				continue
			}
			out = append(out, *info)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

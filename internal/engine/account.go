package engine

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

// TierOverride is an administrator-assigned rank. It coexists with the
// natural (KPI-derived) rank; the effective rank is the maximum of the two
// while the override is active.
type TierOverride struct {
	Rank        types.Rank `json:"rank"`
	Active      bool       `json:"active"`
	SetAt       time.Time  `json:"set_at"`
	SetBy       string     `json:"set_by"`
	PrincipalAt sdkmath.Int `json:"principal_at"`
}

// Account is the per-identity ledger entry.
type Account struct {
	Addr string `json:"addr"`

	// ActivePrincipal is the principal across currently open stakes.
	// TotalStaked accumulates over the account's lifetime and is bounded by
	// the lifetime admission cap.
	ActivePrincipal sdkmath.Int `json:"active_principal"`
	TotalStaked     sdkmath.Int `json:"total_staked"`

	// TeamKpi is the cumulative principal contributed by the whole downline,
	// pushed upward on every stake.
	TeamKpi sdkmath.Int `json:"team_kpi"`

	// Referrer and Friend are set once and never change. Empty means unbound.
	Referrer string `json:"referrer"`
	Friend   string `json:"friend"`

	// Exempt marks accounts admitted while relaxed binding was active. The
	// flag is permanent and is not re-evaluated when the mode toggles back.
	Exempt bool `json:"exempt"`

	Override *TierOverride `json:"override,omitempty"`

	// RealizedProceeds is the settlement asset credited to the account by
	// payouts (yield remainder, commissions, friend cuts).
	RealizedProceeds sdkmath.Int `json:"realized_proceeds"`

	BoundAt time.Time `json:"bound_at"`
}

func newAccount(addr string) *Account {
	return &Account{
		Addr:             addr,
		ActivePrincipal:  sdkmath.ZeroInt(),
		TotalStaked:      sdkmath.ZeroInt(),
		TeamKpi:          sdkmath.ZeroInt(),
		RealizedProceeds: sdkmath.ZeroInt(),
	}
}

func (a *Account) bound() bool {
	return a.Referrer != ""
}

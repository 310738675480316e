package engine

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

// CommissionShare is one tiered payout produced by a settlement.
type CommissionShare struct {
	Beneficiary string      `json:"beneficiary"`
	Depth       int         `json:"depth"`
	Rank        types.Rank  `json:"rank"`
	Amount      sdkmath.Int `json:"amount"`
}

// qualified is the preacher eligibility gate: the account's own open stake
// must meet the floor. Called with the lock held.
func (e *Engine) qualified(acct *Account) bool {
	return acct.ActivePrincipal.GTE(e.params.PreacherFloor)
}

// naturalRank is the highest rank whose KPI threshold the account meets,
// conditioned on the account passing the eligibility gate.
func (e *Engine) naturalRank(acct *Account) types.Rank {
	if !e.qualified(acct) {
		return types.RankNone
	}
	rank := types.RankNone
	for i := 0; i < types.NumRanks; i++ {
		if acct.TeamKpi.GTE(e.params.TierThresholds[i]) {
			rank = types.Rank(i + 1)
		}
	}
	return rank
}

// effectiveRank resolves the natural and override ranks; the second return
// reports whether the override is currently the binding factor.
func (e *Engine) effectiveRank(acct *Account) (types.Rank, bool) {
	natural := e.naturalRank(acct)
	if acct.Override == nil || !acct.Override.Active {
		return natural, false
	}
	if acct.Override.Rank > natural {
		return acct.Override.Rank, true
	}
	return natural, false
}

// SetTier assigns an administrator override rank. Only the tier manager
// capability may call it; every change emits an auditable record.
func (e *Engine) SetTier(tok TierManagerToken, addr string, rank types.Rank, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkTierManager(tok); err != nil {
		return err
	}
	if !rank.Valid() || rank == types.RankNone {
		return fmt.Errorf("invalid tier rank %d", rank)
	}

	acct := e.account(addr)
	prev := types.RankNone
	if acct.Override != nil && acct.Override.Active {
		prev = acct.Override.Rank
	}
	acct.Override = &TierOverride{
		Rank:        rank,
		Active:      true,
		SetAt:       now,
		SetBy:       tok.c.role,
		PrincipalAt: acct.ActivePrincipal,
	}

	e.emit(EventTierSet{
		Account:  addr,
		PrevRank: prev,
		NewRank:  rank,
		Actor:    tok.c.role,
		At:       now,
	})
	return nil
}

// RemoveTier clears an override. The account falls back to its natural rank;
// removing an override never raises the effective rank.
func (e *Engine) RemoveTier(tok TierManagerToken, addr string, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkTierManager(tok); err != nil {
		return err
	}

	acct, ok := e.accounts[addr]
	if !ok || acct.Override == nil || !acct.Override.Active {
		return ErrAccountNotFound
	}
	prev := acct.Override.Rank
	acct.Override = nil

	e.emit(EventTierRemoved{
		Account:  addr,
		PrevRank: prev,
		Actor:    tok.c.role,
		At:       now,
	})
	return nil
}

// distributeCommission walks up to NumRanks ancestors of the staker and
// awards each eligible one the strictly incremental rate slice not already
// captured by a closer ancestor. Ineligible ancestors consume their tier
// slot but never advance the cumulative rate. The unallocated remainder of
// the pool routes to the fee sink; shares plus remainder equal the pool
// exactly. Called with the lock held.
func (e *Engine) distributeCommission(
	staker string,
	yieldProceeds sdkmath.Int,
	pool sdkmath.Int,
	now time.Time,
) (shares []CommissionShare, remainder sdkmath.Int) {
	maxRate := e.params.MaxCommissionRate()
	cumulative := sdkmath.LegacyZeroDec()
	paid := sdkmath.ZeroInt()

	ancestors := e.ancestors(staker, types.NumRanks)
	for depth, anc := range ancestors {
		if cumulative.GTE(maxRate) {
			break
		}
		if !e.qualified(anc) {
			e.emit(EventEligibilityCheckFailed{
				Staker:   staker,
				Ancestor: anc.Addr,
				Depth:    depth + 1,
				At:       now,
			})
			continue
		}
		rank, _ := e.effectiveRank(anc)
		if rank == types.RankNone {
			continue
		}
		rate := e.params.TierRates[rank-1]
		if !rate.GT(cumulative) {
			continue
		}

		amount := rate.Sub(cumulative).MulInt(yieldProceeds).TruncateInt()
		if amount.GT(pool.Sub(paid)) {
			amount = pool.Sub(paid)
		}
		if amount.IsPositive() {
			shares = append(shares, CommissionShare{
				Beneficiary: anc.Addr,
				Depth:       depth + 1,
				Rank:        rank,
				Amount:      amount,
			})
			paid = paid.Add(amount)
		}
		cumulative = rate
	}

	return shares, pool.Sub(paid)
}

package engine

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// BindReferrer sets the one-time referrer relation. The referrer, once set,
// never changes. The root is always an eligible referrer; any other
// candidate must itself be bound and, under the strict staking requirement,
// hold at least the preacher floor -- unless relaxed binding is active or
// the candidate carries the permanent exemption. The exemption originates
// from binding while relaxed mode is on and propagates to every account the
// exempt referrer later sponsors.
func (e *Engine) BindReferrer(addr, referrer string, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if addr == "" || referrer == "" {
		return fmt.Errorf("account and referrer are required")
	}
	if addr == referrer {
		return fmt.Errorf("%w: cannot refer yourself", ErrInvalidReferrer)
	}

	acct := e.account(addr)
	if acct.bound() {
		return fmt.Errorf("%w: referrer already set", ErrAlreadyBound)
	}

	inherited := false
	if referrer != e.root {
		candidate, ok := e.accounts[referrer]
		if !ok || !candidate.bound() {
			return fmt.Errorf("%w: candidate is not bound", ErrInvalidReferrer)
		}
		inherited = candidate.Exempt
		exempt := e.params.RelaxedBinding || candidate.Exempt
		if !exempt && e.params.RequireReferrerStake &&
			candidate.ActivePrincipal.LT(e.params.PreacherFloor) {
			return fmt.Errorf("%w: candidate stake below preacher floor", ErrInvalidReferrer)
		}
	}

	acct.Referrer = referrer
	acct.BoundAt = now
	// The exemption is granted at binding time, either by relaxed mode or by
	// inheritance from an exempt referrer, and never re-evaluated when the
	// mode later toggles back to strict (deliberate grandfathering).
	if e.params.RelaxedBinding || inherited {
		acct.Exempt = true
	}

	e.emit(EventReferrerBound{
		Account:  addr,
		Referrer: referrer,
		Exempt:   acct.Exempt,
		At:       now,
	})

	return nil
}

// BindFriend sets the one-time friend relation, independent of the referrer.
// The friend receives a fixed share of the account's realized yield.
func (e *Engine) BindFriend(addr, friend string, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if addr == "" || friend == "" {
		return fmt.Errorf("account and friend are required")
	}
	if addr == friend {
		return fmt.Errorf("cannot befriend yourself")
	}

	acct := e.account(addr)
	if acct.Friend != "" {
		return fmt.Errorf("%w: friend already set", ErrAlreadyBound)
	}

	acct.Friend = friend
	e.emit(EventFriendBound{Account: addr, Friend: friend, At: now})
	return nil
}

// pushTeamKpi adds newly staked principal to every ancestor's team KPI,
// bounded by the configured referral depth. Called with the lock held.
func (e *Engine) pushTeamKpi(staker string, principal sdkmath.Int) {
	for _, anc := range e.ancestors(staker, e.params.MaxReferralDepth) {
		anc.TeamKpi = anc.TeamKpi.Add(principal)
	}
}

// ancestors walks the referrer chain upward, terminating at the root, at an
// unbound account, or after maxDepth hops. The staker itself is excluded.
// Called with the lock held.
func (e *Engine) ancestors(addr string, maxDepth int) []*Account {
	out := make([]*Account, 0, maxDepth)
	cur, ok := e.accounts[addr]
	if !ok {
		return out
	}
	for depth := 0; depth < maxDepth; depth++ {
		if cur.Addr == e.root || !cur.bound() {
			break
		}
		parent, ok := e.accounts[cur.Referrer]
		if !ok {
			break
		}
		out = append(out, parent)
		if parent.Addr == e.root {
			break
		}
		cur = parent
	}
	return out
}

package engine

import (
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Engine is the staking and compensation state machine. It is logically
// single-threaded: every public operation runs to completion under the lock,
// and every time-dependent computation is a pure function of (state, now) --
// the engine never reads the wall clock itself.
type Engine struct {
	mu sync.Mutex

	params  Params
	root    string
	feeSink string

	accounts map[string]*Account
	stakes   map[string][]*StakeRecord

	snapshots      []SupplySnapshot
	totalPrincipal sdkmath.Int

	// inFlight guards the single reentrancy surface: while a settlement for a
	// record awaits the external conversion, no other ledger-mutating
	// operation may touch that record.
	inFlight map[stakeKey]struct{}

	recorder Recorder

	ownerCap *capability
	tierCap  *capability
}

type stakeKey struct {
	addr  string
	index int
}

type capability struct {
	role string
}

// OwnerToken and TierManagerToken are opaque capabilities minted by the
// engine. Privileged operations statically require the matching token; there
// is no runtime role-string comparison.
type OwnerToken struct{ c *capability }

type TierManagerToken struct{ c *capability }

func New(params Params, root, feeSink string, recorder Recorder) (*Engine, OwnerToken, error) {
	if err := params.Validate(); err != nil {
		return nil, OwnerToken{}, fmt.Errorf("invalid params: %w", err)
	}
	if root == "" {
		return nil, OwnerToken{}, fmt.Errorf("root account is required")
	}
	if feeSink == "" {
		return nil, OwnerToken{}, fmt.Errorf("fee sink is required")
	}

	e := &Engine{
		params:         params,
		root:           root,
		feeSink:        feeSink,
		accounts:       make(map[string]*Account),
		stakes:         make(map[string][]*StakeRecord),
		totalPrincipal: sdkmath.ZeroInt(),
		inFlight:       make(map[stakeKey]struct{}),
		recorder:       recorder,
		ownerCap:       &capability{role: "owner"},
		tierCap:        &capability{role: "tier-manager"},
	}

	// The root is marked bound to itself so that "anything usable as a
	// referrer is itself bound" holds without a special case in the
	// eligibility check (the original system papered over this with a
	// hard-coded exception).
	rootAcct := newAccount(root)
	rootAcct.Referrer = root
	e.accounts[root] = rootAcct

	return e, OwnerToken{c: e.ownerCap}, nil
}

func (e *Engine) emit(ev Event) {
	if e.recorder != nil {
		e.recorder.Record(ev)
	}
}

func (e *Engine) account(addr string) *Account {
	acct, ok := e.accounts[addr]
	if !ok {
		acct = newAccount(addr)
		e.accounts[addr] = acct
	}
	return acct
}

func (e *Engine) checkOwner(tok OwnerToken) error {
	if tok.c == nil || tok.c != e.ownerCap {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) checkTierManager(tok TierManagerToken) error {
	if tok.c == nil || tok.c != e.tierCap {
		return ErrUnauthorized
	}
	return nil
}

// SetTierManagerRole rotates the tier manager capability. Previously issued
// tier manager tokens stop working immediately.
func (e *Engine) SetTierManagerRole(tok OwnerToken) (TierManagerToken, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return TierManagerToken{}, err
	}
	e.tierCap = &capability{role: "tier-manager"}
	return TierManagerToken{c: e.tierCap}, nil
}

// Root returns the root account address.
func (e *Engine) Root() string {
	return e.root
}

// FeeSink returns the current protocol fee recipient.
func (e *Engine) FeeSink() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeSink
}

func (e *Engine) updateParams(actor, field string, now time.Time, mutate func(p *Params)) {
	next := e.params
	mutate(&next)
	next.Version = e.params.Version + 1
	e.params = next
	e.emit(EventParamsUpdated{Version: next.Version, Field: field, Actor: actor, At: now})
}

// SetRateTable replaces the commission rate table.
func (e *Engine) SetRateTable(tok OwnerToken, rates []sdkmath.LegacyDec, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	next := e.params
	next.TierRates = append([]sdkmath.LegacyDec(nil), rates...)
	if err := next.Validate(); err != nil {
		return err
	}
	e.updateParams(tok.c.role, "tier_rates", now, func(p *Params) { p.TierRates = next.TierRates })
	return nil
}

// SetThresholds replaces the team KPI thresholds defining natural rank.
func (e *Engine) SetThresholds(tok OwnerToken, thresholds []sdkmath.Int, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	next := e.params
	next.TierThresholds = append([]sdkmath.Int(nil), thresholds...)
	if err := next.Validate(); err != nil {
		return err
	}
	e.updateParams(tok.c.role, "tier_thresholds", now, func(p *Params) { p.TierThresholds = next.TierThresholds })
	return nil
}

// SetPeriods replaces the staking period table. Existing stakes keep
// compounding under the selector they were opened with; unknown selectors on
// open records are a configuration error surfaced at settlement time.
func (e *Engine) SetPeriods(tok OwnerToken, periods []Period, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	next := e.params
	next.Periods = append([]Period(nil), periods...)
	if err := next.Validate(); err != nil {
		return err
	}
	e.updateParams(tok.c.role, "periods", now, func(p *Params) { p.Periods = next.Periods })
	return nil
}

// SetFeeSink changes the protocol fee recipient.
func (e *Engine) SetFeeSink(tok OwnerToken, feeSink string, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	if feeSink == "" {
		return fmt.Errorf("fee sink is required")
	}
	e.feeSink = feeSink
	e.updateParams(tok.c.role, "fee_sink", now, func(p *Params) {})
	return nil
}

// SetAdmissionMode toggles relaxed referrer binding. Accounts bound while
// relaxed mode is active keep a permanent exemption.
func (e *Engine) SetAdmissionMode(tok OwnerToken, relaxed bool, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	e.updateParams(tok.c.role, "relaxed_binding", now, func(p *Params) { p.RelaxedBinding = relaxed })
	return nil
}

// SetRequireReferrerStake toggles the strict staking requirement for
// referrer eligibility.
func (e *Engine) SetRequireReferrerStake(tok OwnerToken, required bool, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	e.updateParams(tok.c.role, "require_referrer_stake", now, func(p *Params) { p.RequireReferrerStake = required })
	return nil
}

// AdjustTeamKpi applies an explicit administrative correction to an
// account's team KPI. This is the only path by which KPI may decrease.
func (e *Engine) AdjustTeamKpi(tok OwnerToken, addr string, delta sdkmath.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOwner(tok); err != nil {
		return err
	}
	acct, ok := e.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}
	next := acct.TeamKpi.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("team KPI cannot go negative")
	}
	acct.TeamKpi = next
	return nil
}

// Params returns a snapshot of the current configuration.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.params
	p.Periods = append([]Period(nil), e.params.Periods...)
	p.TierThresholds = append([]sdkmath.Int(nil), e.params.TierThresholds...)
	p.TierRates = append([]sdkmath.LegacyDec(nil), e.params.TierRates...)
	return p
}

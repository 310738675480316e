package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// State is the serializable snapshot of the whole engine: durability belongs
// to the hosting runtime, which persists and restores it around the
// in-process ledger.
type State struct {
	Params         Params                    `json:"params"`
	Root           string                    `json:"root"`
	FeeSink        string                    `json:"fee_sink"`
	Accounts       []*Account                `json:"accounts"`
	Stakes         map[string][]*StakeRecord `json:"stakes"`
	Snapshots      []SupplySnapshot          `json:"snapshots"`
	TotalPrincipal sdkmath.Int               `json:"total_principal"`
}

// ExportState deep-copies the engine state. Refused while a settlement is in
// flight: the snapshot would capture a half-open two-phase mutation.
func (e *Engine) ExportState() (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.inFlight) > 0 {
		return nil, ErrSettlementInFlight
	}

	st := &State{
		Params:         e.params,
		Root:           e.root,
		FeeSink:        e.feeSink,
		Accounts:       make([]*Account, 0, len(e.accounts)),
		Stakes:         make(map[string][]*StakeRecord, len(e.stakes)),
		Snapshots:      append([]SupplySnapshot(nil), e.snapshots...),
		TotalPrincipal: e.totalPrincipal,
	}
	for _, acct := range e.accounts {
		cp := *acct
		if acct.Override != nil {
			ov := *acct.Override
			cp.Override = &ov
		}
		st.Accounts = append(st.Accounts, &cp)
	}
	for addr, records := range e.stakes {
		out := make([]*StakeRecord, 0, len(records))
		for _, rec := range records {
			out = append(out, cloneRecord(rec))
		}
		st.Stakes[addr] = out
	}
	return st, nil
}

// RestoreState replaces the engine state wholesale. Intended for startup
// recovery only; capability tokens are unaffected.
func (e *Engine) RestoreState(st *State) error {
	if st == nil {
		return fmt.Errorf("nil state")
	}
	if err := st.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params in state: %w", err)
	}
	if st.Root == "" || st.FeeSink == "" {
		return fmt.Errorf("state missing root or fee sink")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.inFlight) > 0 {
		return ErrSettlementInFlight
	}

	accounts := make(map[string]*Account, len(st.Accounts))
	for _, acct := range st.Accounts {
		cp := *acct
		if acct.Override != nil {
			ov := *acct.Override
			cp.Override = &ov
		}
		accounts[cp.Addr] = &cp
	}
	if _, ok := accounts[st.Root]; !ok {
		return fmt.Errorf("state missing root account %s", st.Root)
	}

	stakes := make(map[string][]*StakeRecord, len(st.Stakes))
	for addr, records := range st.Stakes {
		out := make([]*StakeRecord, 0, len(records))
		for _, rec := range records {
			out = append(out, cloneRecord(rec))
		}
		stakes[addr] = out
	}

	e.params = st.Params
	e.root = st.Root
	e.feeSink = st.FeeSink
	e.accounts = accounts
	e.stakes = stakes
	e.snapshots = append([]SupplySnapshot(nil), st.Snapshots...)
	e.totalPrincipal = st.TotalPrincipal

	return nil
}

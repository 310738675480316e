package engine

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/types"
)

// Event is an observability record emitted by the engine. Events never
// influence engine state; the hosting service forwards them to the queue and
// the audit store.
type Event interface {
	EventType() types.EventType
}

// Recorder receives engine events synchronously, in emission order, while
// the engine lock is held. Implementations must not call back into the
// engine.
type Recorder interface {
	Record(ev Event)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ev Event)

func (f RecorderFunc) Record(ev Event) { f(ev) }

type EventStakeOpened struct {
	Account   string      `json:"account"`
	Index     int         `json:"index"`
	Principal sdkmath.Int `json:"principal"`
	Selector  uint32      `json:"selector"`
	Maturity  time.Time   `json:"maturity"`
	At        time.Time   `json:"at"`
}

func (EventStakeOpened) EventType() types.EventType { return types.EventStakeOpened }

type EventStakeClosed struct {
	Account   string      `json:"account"`
	Index     int         `json:"index"`
	Principal sdkmath.Int `json:"principal"`
	Yield     sdkmath.Int `json:"yield"`
	Proceeds  sdkmath.Int `json:"proceeds"`
	At        time.Time   `json:"at"`
}

func (EventStakeClosed) EventType() types.EventType { return types.EventStakeClosed }

type EventInterestWithdrawn struct {
	Account     string      `json:"account"`
	Index       int         `json:"index"`
	Yield       sdkmath.Int `json:"yield"`
	Proceeds    sdkmath.Int `json:"proceeds"`
	NewBaseline time.Time   `json:"new_baseline"`
	At          time.Time   `json:"at"`
}

func (EventInterestWithdrawn) EventType() types.EventType { return types.EventInterestWithdrawn }

type EventStakeMatured struct {
	Account  string    `json:"account"`
	Index    int       `json:"index"`
	Maturity time.Time `json:"maturity"`
	At       time.Time `json:"at"`
}

func (EventStakeMatured) EventType() types.EventType { return types.EventStakeMatured }

type EventAdmissionRejected struct {
	Account   string      `json:"account"`
	Requested sdkmath.Int `json:"requested"`
	Allowed   sdkmath.Int `json:"allowed"`
	At        time.Time   `json:"at"`
}

func (EventAdmissionRejected) EventType() types.EventType { return types.EventAdmissionRejected }

type EventReferrerBound struct {
	Account  string    `json:"account"`
	Referrer string    `json:"referrer"`
	Exempt   bool      `json:"exempt"`
	At       time.Time `json:"at"`
}

func (EventReferrerBound) EventType() types.EventType { return types.EventReferrerBound }

type EventFriendBound struct {
	Account string    `json:"account"`
	Friend  string    `json:"friend"`
	At      time.Time `json:"at"`
}

func (EventFriendBound) EventType() types.EventType { return types.EventFriendBound }

type EventTierSet struct {
	Account  string     `json:"account"`
	PrevRank types.Rank `json:"prev_rank"`
	NewRank  types.Rank `json:"new_rank"`
	Actor    string     `json:"actor"`
	At       time.Time  `json:"at"`
}

func (EventTierSet) EventType() types.EventType { return types.EventTierSet }

type EventTierRemoved struct {
	Account  string     `json:"account"`
	PrevRank types.Rank `json:"prev_rank"`
	Actor    string     `json:"actor"`
	At       time.Time  `json:"at"`
}

func (EventTierRemoved) EventType() types.EventType { return types.EventTierRemoved }

type EventCommissionPaid struct {
	Staker      string      `json:"staker"`
	Beneficiary string      `json:"beneficiary"`
	Depth       int         `json:"depth"`
	Rank        types.Rank  `json:"rank"`
	Amount      sdkmath.Int `json:"amount"`
	At          time.Time   `json:"at"`
}

func (EventCommissionPaid) EventType() types.EventType { return types.EventCommissionPaid }

// EventEligibilityCheckFailed is emitted when an ancestor fails the preacher
// gate during commission distribution. It is informational only and never
// aborts the settlement.
type EventEligibilityCheckFailed struct {
	Staker   string    `json:"staker"`
	Ancestor string    `json:"ancestor"`
	Depth    int       `json:"depth"`
	At       time.Time `json:"at"`
}

func (EventEligibilityCheckFailed) EventType() types.EventType {
	return types.EventEligibilityCheckFailed
}

type EventParamsUpdated struct {
	Version uint64    `json:"version"`
	Field   string    `json:"field"`
	Actor   string    `json:"actor"`
	At      time.Time `json:"at"`
}

func (EventParamsUpdated) EventType() types.EventType { return types.EventParamsUpdated }

package engine

import "errors"

var (
	// ErrAdmissionRejected is the only failure expected to occur routinely
	// under load; callers may retry once the inflow window drains.
	ErrAdmissionRejected = errors.New("admission rejected")

	ErrInvalidReferrer    = errors.New("referrer not eligible")
	ErrReferrerNotBound   = errors.New("account has no referrer bound")
	ErrAlreadyBound       = errors.New("already bound")
	ErrNotMatured         = errors.New("stake has not matured")
	ErrStakeMatured       = errors.New("stake matured, unstake instead")
	ErrDustTooSmall       = errors.New("accrued yield below dust threshold")
	ErrPeriodInvalid      = errors.New("unknown period selector")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSettlementInFlight = errors.New("settlement already in flight for this stake")
	ErrStakeNotFound      = errors.New("stake not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrStakeClosed        = errors.New("stake already closed")
)

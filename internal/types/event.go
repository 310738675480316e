package types

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventStakeOpened            EventType = "syi.staking.v1.EventStakeOpened"
	EventStakeClosed            EventType = "syi.staking.v1.EventStakeClosed"
	EventStakeMatured           EventType = "syi.staking.v1.EventStakeMatured"
	EventInterestWithdrawn      EventType = "syi.staking.v1.EventInterestWithdrawn"
	EventAdmissionRejected      EventType = "syi.staking.v1.EventAdmissionRejected"
	EventReferrerBound          EventType = "syi.referral.v1.EventReferrerBound"
	EventFriendBound            EventType = "syi.referral.v1.EventFriendBound"
	EventTierSet                EventType = "syi.tier.v1.EventTierSet"
	EventTierRemoved            EventType = "syi.tier.v1.EventTierRemoved"
	EventCommissionPaid         EventType = "syi.tier.v1.EventCommissionPaid"
	EventEligibilityCheckFailed EventType = "syi.tier.v1.EventEligibilityCheckFailed"
	EventParamsUpdated          EventType = "syi.params.v1.EventParamsUpdated"
)

package model

import (
	"time"
)

const SettlementCollection = "settlements"

const (
	SettlementStatusPrepared  = "PREPARED"
	SettlementStatusCompleted = "COMPLETED"
	SettlementStatusAborted   = "ABORTED"
)

// SettlementDocument journals one two-phase settlement. The id doubles as the
// idempotency key sent to the exchange, so a crash between the conversion and
// the status update can be reconciled on restart.
type SettlementDocument struct {
	Id         string    `bson:"_id"`
	Account    string    `bson:"account"`
	StakeIndex int       `bson:"stake_index"`
	Kind       string    `bson:"kind"`
	Amount     string    `bson:"amount"`
	Proceeds   string    `bson:"proceeds,omitempty"`
	Status     string    `bson:"status"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

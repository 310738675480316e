package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TierAuditCollection = "tier_audits"

// TierAuditDocument records one administrator tier override change.
type TierAuditDocument struct {
	Id       primitive.ObjectID `bson:"_id,omitempty"`
	Account  string             `bson:"account"`
	PrevRank string             `bson:"prev_rank"`
	NewRank  string             `bson:"new_rank"`
	Actor    string             `bson:"actor"`
	At       time.Time          `bson:"at"`
}

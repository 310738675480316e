package model

import (
	"time"
)

const EngineStateCollection = "engine_state"

// LatestEngineStateId is the fixed document id of the most recent snapshot;
// the collection holds exactly one live state plus nothing else.
const LatestEngineStateId = "latest"

// EngineStateDocument is a full engine snapshot. Payload is the JSON-encoded
// engine state; the document is replaced wholesale on every persist.
type EngineStateDocument struct {
	Id            string    `bson:"_id"`
	ParamsVersion uint64    `bson:"params_version"`
	Payload       []byte    `bson:"payload"`
	SavedAt       time.Time `bson:"saved_at"`
}

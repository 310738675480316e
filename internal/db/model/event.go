package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const EventCollection = "events"

// EventDocument is one emitted engine event. Payload carries the event struct
// as JSON so the collection can hold every event type.
type EventDocument struct {
	Id        primitive.ObjectID `bson:"_id,omitempty"`
	EventType string             `bson:"event_type"`
	Account   string             `bson:"account,omitempty"`
	Payload   []byte             `bson:"payload"`
	TraceId   string             `bson:"trace_id,omitempty"`
	EmittedAt time.Time          `bson:"emitted_at"`
}

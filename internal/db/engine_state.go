package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
)

func (db *Database) SaveEngineState(ctx context.Context, state *model.EngineStateDocument) error {
	filter := bson.M{"_id": state.Id}
	opts := options.Replace().SetUpsert(true)

	_, err := db.collection(model.EngineStateCollection).ReplaceOne(ctx, filter, state, opts)
	return err
}

func (db *Database) GetLatestEngineState(ctx context.Context) (*model.EngineStateDocument, error) {
	filter := bson.M{"_id": model.LatestEngineStateId}
	res := db.collection(model.EngineStateCollection).FindOne(ctx, filter)

	var state model.EngineStateDocument
	if err := res.Decode(&state); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.LatestEngineStateId,
				Message: "no engine state has been persisted yet",
			}
		}
		return nil, err
	}
	return &state, nil
}

package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
)

func (db *Database) SaveEvents(ctx context.Context, events []*model.EventDocument) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(events))
	for _, ev := range events {
		docs = append(docs, ev)
	}

	_, err := db.collection(model.EventCollection).InsertMany(ctx, docs)
	return err
}

func (db *Database) GetEventsByAccount(ctx context.Context, account string, limit int64) ([]*model.EventDocument, error) {
	filter := bson.M{"account": account}
	opts := options.Find().
		SetSort(bson.D{{Key: "emitted_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.EventCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*model.EventDocument
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

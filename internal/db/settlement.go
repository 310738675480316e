package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
)

func (db *Database) SaveSettlement(ctx context.Context, settlement *model.SettlementDocument) error {
	_, err := db.collection(model.SettlementCollection).InsertOne(ctx, settlement)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     settlement.Id,
						Message: "settlement already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) UpdateSettlementStatus(ctx context.Context, id, status, proceeds string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"proceeds":   proceeds,
		"updated_at": time.Now().UTC(),
	}}

	res, err := db.collection(model.SettlementCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id,
			Message: "settlement not found by id",
		}
	}
	return nil
}

func (db *Database) GetSettlement(ctx context.Context, id string) (*model.SettlementDocument, error) {
	filter := bson.M{"_id": id}
	res := db.collection(model.SettlementCollection).FindOne(ctx, filter)

	var settlement model.SettlementDocument
	if err := res.Decode(&settlement); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "settlement not found by id",
			}
		}
		return nil, err
	}
	return &settlement, nil
}

func (db *Database) GetSettlementsByStatus(ctx context.Context, status string) ([]*model.SettlementDocument, error) {
	filter := bson.M{"status": status}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := db.collection(model.SettlementCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var settlements []*model.SettlementDocument
	if err := cursor.All(ctx, &settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

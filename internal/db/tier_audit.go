package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
)

func (db *Database) SaveTierAudit(ctx context.Context, audit *model.TierAuditDocument) error {
	_, err := db.collection(model.TierAuditCollection).InsertOne(ctx, audit)
	return err
}

func (db *Database) GetTierAuditsByAccount(ctx context.Context, account string) ([]*model.TierAuditDocument, error) {
	filter := bson.M{"account": account}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})

	cursor, err := db.collection(model.TierAuditCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var audits []*model.TierAuditDocument
	if err := cursor.All(ctx, &audits); err != nil {
		return nil, err
	}
	return audits, nil
}

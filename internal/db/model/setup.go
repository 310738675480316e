package model

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/syilabs-io/syi-staking-engine/internal/config"
)

const setupTimeout = 10 * time.Second

var collections = map[string][]mongo.IndexModel{
	EventCollection: {
		{Keys: bson.D{{Key: "emitted_at", Value: 1}}},
		{Keys: bson.D{{Key: "account", Value: 1}, {Key: "emitted_at", Value: -1}}},
	},
	TierAuditCollection: {
		{Keys: bson.D{{Key: "account", Value: 1}, {Key: "at", Value: -1}}},
	},
	SettlementCollection: {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "account", Value: 1}}},
	},
	EngineStateCollection: nil,
}

// Setup creates the collections and indexes. Safe to run on every boot.
func Setup(ctx context.Context, cfg *config.Config) error {
	credential := options.Credential{
		Username: cfg.Db.Username,
		Password: cfg.Db.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Db.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	database := client.Database(cfg.Db.DbName)

	for name, indexes := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		if len(indexes) == 0 {
			continue
		}
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and indexes created successfully")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	// CreateCollection errors if the collection already exists; treat that as
	// success so Setup stays idempotent.
	if err := database.CreateCollection(ctx, collectionName); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			return nil
		}
		return err
	}
	return nil
}

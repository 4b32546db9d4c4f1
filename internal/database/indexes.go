package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates the unique indexes the consistency contract
// relies on: product names and user emails. Creation is idempotent, so
// this runs on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	logger.Info("Ensuring collection indexes...")

	_, err := db.Collection(CollProducts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique product name index: %w", err)
	}

	_, err = db.Collection(CollUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique user email index: %w", err)
	}

	// Journal entries are scanned by age during the repair pass.
	_, err = db.Collection(CollJournal).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create journal index: %w", err)
	}

	logger.Info("Collection indexes ready")
	return nil
}

package database

import (
	"context"
	"fmt"

	"transport-catalog/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names owned by the consistency service.
const (
	CollProducts = "products"
	CollUsers    = "users"
	CollCarts    = "carts"
	CollOrders   = "orders"
	CollReviews  = "reviews"
	CollJournal  = "journal"
)

// Service wraps the Mongo client and the database handle. It is built
// once in main and passed explicitly to the layers that need it; there
// is no package-level connection state.
type Service struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    config.MongoConfig
}

// Connect establishes a connection to the document store and verifies
// it with a ping. Server selection is bounded by cfg.Timeout so an
// unreachable backend fails within a few seconds instead of hanging.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Service, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		// Release the client before reporting the backend as down.
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("storage backend unreachable at %s: %w", cfg.URI, err)
	}

	return &Service{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    cfg,
	}, nil
}

// DB returns the database handle.
func (s *Service) DB() *mongo.Database {
	return s.db
}

// Health pings the backend and returns a status snapshot.
func (s *Service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return map[string]string{
			"status": "down",
			"error":  err.Error(),
		}
	}

	return map[string]string{
		"status":   "up",
		"database": s.cfg.Database,
	}
}

// Close disconnects the underlying client.
func (s *Service) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongo client: %w", err)
	}
	return nil
}

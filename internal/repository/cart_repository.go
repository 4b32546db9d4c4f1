package repository

import (
	"context"
	"errors"

	"transport-catalog/internal/database"
	"transport-catalog/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*domain.Cart, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type cartRepository struct {
	coll *mongo.Collection
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{coll: db.Collection(database.CollCarts)}
}

// Create inserts a new cart snapshot
func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	_, err := r.coll.InsertOne(ctx, cart)
	if err != nil {
		return wrapStorageErr("failed to create cart", err)
	}
	return nil
}

// FindByID retrieves a cart by id
func (r *cartRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, wrapStorageErr("failed to find cart by id", err)
	}
	return cart, nil
}

// ListByUser retrieves every cart owned by a user
func (r *cartRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*domain.Cart, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, wrapStorageErr("failed to list carts", err)
	}
	defer cur.Close(ctx)

	carts := []*domain.Cart{}
	if err := cur.All(ctx, &carts); err != nil {
		return nil, wrapStorageErr("failed to decode carts", err)
	}
	return carts, nil
}

// Delete removes a cart and reports whether one was removed
func (r *cartRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, wrapStorageErr("failed to delete cart", err)
	}
	return res.DeletedCount > 0, nil
}

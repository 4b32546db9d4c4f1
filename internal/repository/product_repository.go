package repository

import (
	"context"
	"errors"
	"fmt"

	"transport-catalog/internal/database"
	"transport-catalog/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductRepository defines the interface for product data access.
// Products are keyed by their unique name.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
	Filter(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)

	// AdjustStock atomically changes the stock of a product by delta.
	// Negative deltas are guarded so stock never goes below zero:
	// a decrement larger than the current stock matches nothing and
	// returns domain.ErrInsufficientStock.
	AdjustStock(ctx context.Context, name string, delta int) error

	// IncrementPopularity atomically adds one to the popularity counter.
	IncrementPopularity(ctx context.Context, name string) error

	// DecrementPopularity atomically subtracts one from the popularity
	// counter, clamped at zero. A missing product or an already-zero
	// counter is a no-op, not an error.
	DecrementPopularity(ctx context.Context, name string) error
}

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{coll: db.Collection(database.CollProducts)}
}

// Create inserts a new product document
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	_, err := r.coll.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &domain.ValidationError{Field: "name", Reason: "product with this name already exists"}
		}
		return wrapStorageErr("failed to create product", err)
	}
	return nil
}

// FindByName retrieves a product by its unique name
func (r *productRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, wrapStorageErr("failed to find product by name", err)
	}
	return product, nil
}

// DeleteByName removes a product document and reports whether one was removed
func (r *productRepository) DeleteByName(ctx context.Context, name string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return false, wrapStorageErr("failed to delete product", err)
	}
	return res.DeletedCount > 0, nil
}

// Filter retrieves every product matching all supplied predicates.
// Absent predicates impose no constraint.
func (r *productRepository) Filter(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	query := bson.M{}

	if filter.Category != nil {
		query["category"] = *filter.Category
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	if filter.MinPopularity != nil {
		query["popularity"] = bson.M{"$gte": *filter.MinPopularity}
	}
	if filter.MinStock != nil {
		query["stock"] = bson.M{"$gte": *filter.MinStock}
	}

	cur, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, wrapStorageErr("failed to filter products", err)
	}
	defer cur.Close(ctx)

	products := []*domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, wrapStorageErr("failed to decode products", err)
	}
	return products, nil
}

// AdjustStock applies an atomic $inc to the stock field
func (r *productRepository) AdjustStock(ctx context.Context, name string, delta int) error {
	filter := bson.M{"name": name}
	if delta < 0 {
		// Never let the decrement push stock below zero.
		filter["stock"] = bson.M{"$gte": -delta}
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return wrapStorageErr("failed to adjust stock", err)
	}
	if res.MatchedCount == 0 {
		exists, err := r.exists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			return ErrProductNotFound
		}
		return fmt.Errorf("product %q: %w", name, domain.ErrInsufficientStock)
	}
	return nil
}

// IncrementPopularity applies an atomic $inc of +1 to the popularity counter
func (r *productRepository) IncrementPopularity(ctx context.Context, name string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"name": name}, bson.M{"$inc": bson.M{"popularity": 1}})
	if err != nil {
		return wrapStorageErr("failed to increment popularity", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementPopularity applies an atomic $inc of -1, clamped at zero
func (r *productRepository) DecrementPopularity(ctx context.Context, name string) error {
	// The popularity > 0 guard makes the clamp atomic: a counter already
	// at zero matches nothing and stays untouched.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"name": name, "popularity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"popularity": -1}},
	)
	if err != nil {
		return wrapStorageErr("failed to decrement popularity", err)
	}
	return nil
}

func (r *productRepository) exists(ctx context.Context, name string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return false, wrapStorageErr("failed to count products", err)
	}
	return count > 0, nil
}

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

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	ListByProduct(ctx context.Context, productName string) ([]*domain.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type reviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{coll: db.Collection(database.CollReviews)}
}

// Create inserts a new review document. The caller allocates the id
// beforehand so the journal can reference it.
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	_, err := r.coll.InsertOne(ctx, review)
	if err != nil {
		return wrapStorageErr("failed to create review", err)
	}
	return nil
}

// FindByID retrieves a review by id
func (r *reviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	review := &domain.Review{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, wrapStorageErr("failed to find review by id", err)
	}
	return review, nil
}

// ListByProduct retrieves every review attached to a product name
func (r *reviewRepository) ListByProduct(ctx context.Context, productName string) ([]*domain.Review, error) {
	cur, err := r.coll.Find(ctx, bson.M{"product_name": productName})
	if err != nil {
		return nil, wrapStorageErr("failed to list reviews", err)
	}
	defer cur.Close(ctx)

	reviews := []*domain.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, wrapStorageErr("failed to decode reviews", err)
	}
	return reviews, nil
}

// Delete removes a review and reports whether one was removed
func (r *reviewRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, wrapStorageErr("failed to delete review", err)
	}
	return res.DeletedCount > 0, nil
}

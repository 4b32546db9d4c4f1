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

// UserRepository defines the interface for user data access.
// Users are keyed by their unique email.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	DeleteByEmail(ctx context.Context, email string) (bool, error)

	// AppendOrder pushes an order id onto the user's purchase history.
	AppendOrder(ctx context.Context, userID, orderID primitive.ObjectID) error

	// RemoveOrder pulls an order id from the user's purchase history.
	// A missing user is a no-op: historical orders outlive their owner.
	RemoveOrder(ctx context.Context, userID, orderID primitive.ObjectID) error
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection(database.CollUsers)}
}

// Create inserts a new user document. A duplicate email surfaces as
// domain.ErrDuplicateEmail via the unique index on the email field.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return wrapStorageErr("failed to create user", err)
	}
	return nil
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStorageErr("failed to find user by email", err)
	}
	return user, nil
}

// DeleteByEmail removes a user document and reports whether one was removed
func (r *userRepository) DeleteByEmail(ctx context.Context, email string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return false, wrapStorageErr("failed to delete user", err)
	}
	return res.DeletedCount > 0, nil
}

// AppendOrder pushes an order id onto the purchase history
func (r *userRepository) AppendOrder(ctx context.Context, userID, orderID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"order_history": orderID}},
	)
	if err != nil {
		return wrapStorageErr("failed to append order to history", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RemoveOrder pulls an order id from the purchase history
func (r *userRepository) RemoveOrder(ctx context.Context, userID, orderID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"order_history": orderID}},
	)
	if err != nil {
		return wrapStorageErr("failed to remove order from history", err)
	}
	return nil
}

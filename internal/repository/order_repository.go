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

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*domain.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus) error
	UpdateDeliveryStatus(ctx context.Context, id primitive.ObjectID, status domain.DeliveryStatus) error
	UpdateLifecycleStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error
}

type orderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{coll: db.Collection(database.CollOrders)}
}

// Create inserts a new order document. The caller allocates the id
// beforehand so the journal can reference it.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return wrapStorageErr("failed to create order", err)
	}
	return nil
}

// FindByID retrieves an order by id
func (r *orderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapStorageErr("failed to find order by id", err)
	}
	return order, nil
}

// ListByUser retrieves every order placed by a user
func (r *orderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*domain.Order, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, wrapStorageErr("failed to list orders", err)
	}
	defer cur.Close(ctx)

	orders := []*domain.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, wrapStorageErr("failed to decode orders", err)
	}
	return orders, nil
}

// Delete removes an order and reports whether one was removed
func (r *orderRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, wrapStorageErr("failed to delete order", err)
	}
	return res.DeletedCount > 0, nil
}

// UpdatePaymentStatus sets the payment status field
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status domain.PaymentStatus) error {
	return r.setField(ctx, id, "payment_status", status)
}

// UpdateDeliveryStatus sets the delivery status field
func (r *orderRepository) UpdateDeliveryStatus(ctx context.Context, id primitive.ObjectID, status domain.DeliveryStatus) error {
	return r.setField(ctx, id, "delivery_status", status)
}

// UpdateLifecycleStatus sets the lifecycle status field
func (r *orderRepository) UpdateLifecycleStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	return r.setField(ctx, id, "status", status)
}

func (r *orderRepository) setField(ctx context.Context, id primitive.ObjectID, field string, value interface{}) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return wrapStorageErr("failed to update order "+field, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

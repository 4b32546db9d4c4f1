package service

import (
	"context"
	"errors"
	"time"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateOrder places an order as a recoverable multi-document sequence:
// insert the order, append its id to the owner's purchase history, then
// decrement each ordered product's stock. Quantities above current stock
// fail the whole call before any write happens; a mid-sequence failure
// is compensated (see runJournaled).
func (s *consistencyService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if !in.PaymentStatus.IsValid() {
		return nil, &domain.ValidationError{Field: "payment_status", Reason: "unknown payment status"}
	}
	if !in.DeliveryStatus.IsValid() {
		return nil, &domain.ValidationError{Field: "delivery_status", Reason: "unknown delivery status"}
	}

	user, err := s.users.FindByEmail(ctx, in.UserEmail)
	if err != nil {
		return nil, err
	}

	items, total, err := s.resolveItems(ctx, in.Quantities, true)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:             primitive.NewObjectID(),
		UserID:         user.ID,
		UserEmail:      user.Email,
		Items:          items,
		Total:          total,
		PaymentStatus:  in.PaymentStatus,
		DeliveryStatus: in.DeliveryStatus,
		Status:         domain.OrderInProgress,
		CreatedAt:      time.Now(),
	}

	entry := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "create_order",
		CreatedAt: time.Now(),
		Steps: []domain.JournalStep{
			{Action: domain.StepInsertOrder, OrderID: order.ID},
			{Action: domain.StepAppendHistory, UserID: user.ID, OrderID: order.ID},
		},
	}
	steps := []stepFunc{
		func(ctx context.Context) error { return s.orders.Create(ctx, order) },
		func(ctx context.Context) error { return s.users.AppendOrder(ctx, user.ID, order.ID) },
	}
	for _, item := range items {
		item := item
		entry.Steps = append(entry.Steps, domain.JournalStep{
			Action:      domain.StepDecrementStock,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
		steps = append(steps, func(ctx context.Context) error {
			return s.products.AdjustStock(ctx, item.ProductName, -item.Quantity)
		})
	}

	if err := s.runJournaled(ctx, entry, steps); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder removes the order id from its owner's purchase history
// (skipped when the user no longer exists) and then deletes the order
// document. Returns whether an order was removed.
func (s *consistencyService) DeleteOrder(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return false, nil
		}
		return false, err
	}

	entry := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "delete_order",
		CreatedAt: time.Now(),
		Steps: []domain.JournalStep{
			{Action: domain.StepRemoveHistory, UserID: order.UserID, OrderID: order.ID},
			{Action: domain.StepDeleteOrder, OrderID: order.ID},
		},
	}
	steps := []stepFunc{
		// $pull on a missing user matches nothing, which is exactly the
		// non-fatal skip the contract asks for.
		func(ctx context.Context) error { return s.users.RemoveOrder(ctx, order.UserID, order.ID) },
		func(ctx context.Context) error {
			_, err := s.orders.Delete(ctx, order.ID)
			return err
		},
	}

	if err := s.runJournaled(ctx, entry, steps); err != nil {
		return false, err
	}
	return true, nil
}

// GetOrder retrieves an order by id.
func (s *consistencyService) GetOrder(ctx context.Context, orderID primitive.ObjectID) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListOrders retrieves every order placed by a user.
func (s *consistencyService) ListOrders(ctx context.Context, userEmail string) ([]*domain.Order, error) {
	user, err := s.users.FindByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, user.ID)
}

// UpdatePaymentStatus sets the payment status of an order.
func (s *consistencyService) UpdatePaymentStatus(ctx context.Context, orderID primitive.ObjectID, status domain.PaymentStatus) error {
	if !status.IsValid() {
		return &domain.ValidationError{Field: "payment_status", Reason: "unknown payment status"}
	}
	return s.orders.UpdatePaymentStatus(ctx, orderID, status)
}

// UpdateDeliveryStatus sets the delivery status of an order. A delivered
// order also moves its lifecycle status to completed; these transitions
// are driven externally and not otherwise constrained.
func (s *consistencyService) UpdateDeliveryStatus(ctx context.Context, orderID primitive.ObjectID, status domain.DeliveryStatus) error {
	if !status.IsValid() {
		return &domain.ValidationError{Field: "delivery_status", Reason: "unknown delivery status"}
	}
	if err := s.orders.UpdateDeliveryStatus(ctx, orderID, status); err != nil {
		return err
	}
	if status == domain.DeliveryDelivered {
		return s.orders.UpdateLifecycleStatus(ctx, orderID, domain.OrderCompleted)
	}
	return nil
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// IsValid reports whether s is a known payment status.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

// DeliveryStatus is the delivery state of an order.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// IsValid reports whether s is a known delivery status.
func (s DeliveryStatus) IsValid() bool {
	return s == DeliveryPending || s == DeliveryDelivered
}

// OrderStatus is the lifecycle state of an order. Transitions are driven
// externally by delivery-status updates and are not otherwise constrained.
type OrderStatus string

const (
	OrderInProgress OrderStatus = "in-progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Item is one product line of a cart or order. UnitPrice is the product
// price captured at creation time.
type Item struct {
	ProductName string  `bson:"product_name" json:"product_name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
}

// Order represents a placed order. Total is a snapshot computed at
// creation time and never recomputed when product prices change.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserEmail      string             `bson:"user_email" json:"user_email"`
	Items          []Item             `bson:"items" json:"items"`
	Total          float64            `bson:"total" json:"total"`
	PaymentStatus  PaymentStatus      `bson:"payment_status" json:"payment_status"`
	DeliveryStatus DeliveryStatus     `bson:"delivery_status" json:"delivery_status"`
	Status         OrderStatus        `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered customer.
// Email is unique across the collection. OrderHistory keeps the ids of
// the user's orders in creation order; entries may dangle after an order
// is deleted out of band and read paths must tolerate missing lookups.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	Address      string               `bson:"address" json:"address"`
	Phone        string               `bson:"phone,omitempty" json:"phone,omitempty"`
	RegisteredAt time.Time            `bson:"registered_at" json:"registered_at"`
	OrderHistory []primitive.ObjectID `bson:"order_history" json:"order_history"`
}

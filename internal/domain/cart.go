package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart represents a saved cart. Carts are independent snapshots, not
// live views: Total is frozen at creation time.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserEmail string             `bson:"user_email" json:"user_email"`
	Items     []Item             `bson:"items" json:"items"`
	Total     float64            `bson:"total" json:"total"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

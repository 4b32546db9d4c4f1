package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review represents a user review of a product. Creating a review
// increments the product's popularity by one; deleting it decrements
// the counter, clamped at zero.
type Review struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductName string             `bson:"product_name" json:"product_name"`
	UserEmail   string             `bson:"user_email" json:"user_email"`
	Comment     string             `bson:"comment" json:"comment"`
	Rating      int                `bson:"rating" json:"rating"`
	Valid       bool               `bson:"valid" json:"valid"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

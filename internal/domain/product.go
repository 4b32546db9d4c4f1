package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one of the fixed transport-ticket categories.
type Category string

const (
	CategorySingleTicket  Category = "Ticket simple"
	CategoryDayTicket     Category = "Ticket journée"
	CategoryTenTicketBook Category = "Carnet 10 tickets"
	CategoryMonthlyPass   Category = "Abonnement mensuel"
	CategoryAnnualPass    Category = "Abonnement annuel"
)

// Categories lists every valid product category.
func Categories() []Category {
	return []Category{
		CategorySingleTicket,
		CategoryDayTicket,
		CategoryTenTicketBook,
		CategoryMonthlyPass,
		CategoryAnnualPass,
	}
}

// IsValid reports whether c belongs to the fixed category catalog.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a ticket product in the catalog.
// Stock and Popularity are never negative; Popularity starts at 0 and is
// mutated only by review creation and deletion.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Category    Category           `bson:"category" json:"category"`
	Popularity  int                `bson:"popularity" json:"popularity"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ProductFilter holds the optional predicates of a product query.
// Nil fields impose no constraint; supplied fields combine with AND
// semantics. The price range defaults to [0, +inf) when unset.
type ProductFilter struct {
	Category      *Category
	MinPrice      *float64
	MaxPrice      *float64
	MinPopularity *int
	MinStock      *int
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Journal step actions. Each one names a single-document write that a
// multi-document operation performs and that the repair pass knows how
// to compensate.
const (
	StepInsertOrder    = "insert_order"
	StepAppendHistory  = "append_history"
	StepDecrementStock = "decrement_stock"
	StepRemoveHistory  = "remove_history"
	StepDeleteOrder    = "delete_order"
	StepInsertReview   = "insert_review"
	StepIncPopularity  = "increment_popularity"
	StepDecPopularity  = "decrement_popularity"
	StepDeleteReview   = "delete_review"
)

// JournalStep records one single-document write of a multi-document
// operation, with enough detail to undo it.
type JournalStep struct {
	Action      string             `bson:"action"`
	ProductName string             `bson:"product_name,omitempty"`
	Quantity    int                `bson:"quantity,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id,omitempty"`
	OrderID     primitive.ObjectID `bson:"order_id,omitempty"`
	ReviewID    primitive.ObjectID `bson:"review_id,omitempty"`
	Done        bool               `bson:"done"`
}

// JournalEntry is the intent record of a multi-document mutation.
// It is written before the first sub-step, each step is marked as it
// commits, and the entry is deleted once the whole sequence lands.
// An entry that survives is the footprint of a partial application and
// drives compensation.
type JournalEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OpID      string             `bson:"op_id"`
	Op        string             `bson:"op"`
	Steps     []JournalStep      `bson:"steps"`
	CreatedAt time.Time          `bson:"created_at"`
}

// CommittedSteps returns the actions of the steps that have committed.
func (e *JournalEntry) CommittedSteps() []string {
	var committed []string
	for _, s := range e.Steps {
		if s.Done {
			committed = append(committed, s.Action)
		}
	}
	return committed
}

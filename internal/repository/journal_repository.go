package repository

import (
	"context"
	"fmt"
	"time"

	"transport-catalog/internal/database"
	"transport-catalog/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// JournalRepository persists the intent records of multi-document
// mutations. See domain.JournalEntry for the recovery contract.
type JournalRepository interface {
	Create(ctx context.Context, entry *domain.JournalEntry) error
	MarkStep(ctx context.Context, entryID primitive.ObjectID, stepIndex int, done bool) error
	Delete(ctx context.Context, entryID primitive.ObjectID) error

	// ListOlderThan returns incomplete entries created before now-age.
	// Fresh entries are skipped so the repair pass never races an
	// in-flight operation.
	ListOlderThan(ctx context.Context, age time.Duration) ([]*domain.JournalEntry, error)
}

type journalRepository struct {
	coll *mongo.Collection
}

// NewJournalRepository creates a new instance of JournalRepository
func NewJournalRepository(db *mongo.Database) JournalRepository {
	return &journalRepository{coll: db.Collection(database.CollJournal)}
}

// Create inserts an intent record before the first sub-step runs
func (r *journalRepository) Create(ctx context.Context, entry *domain.JournalEntry) error {
	_, err := r.coll.InsertOne(ctx, entry)
	if err != nil {
		return wrapStorageErr("failed to create journal entry", err)
	}
	return nil
}

// MarkStep sets the committed flag of one sub-step
func (r *journalRepository) MarkStep(ctx context.Context, entryID primitive.ObjectID, stepIndex int, done bool) error {
	field := fmt.Sprintf("steps.%d.done", stepIndex)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": entryID},
		bson.M{"$set": bson.M{field: done}},
	)
	if err != nil {
		return wrapStorageErr("failed to mark journal step", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("journal entry %s vanished before step %d", entryID.Hex(), stepIndex)
	}
	return nil
}

// Delete removes a completed (or fully compensated) entry
func (r *journalRepository) Delete(ctx context.Context, entryID primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": entryID})
	if err != nil {
		return wrapStorageErr("failed to delete journal entry", err)
	}
	return nil
}

// ListOlderThan returns stale incomplete entries, oldest first
func (r *journalRepository) ListOlderThan(ctx context.Context, age time.Duration) ([]*domain.JournalEntry, error) {
	cutoff := time.Now().Add(-age)
	cur, err := r.coll.Find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, wrapStorageErr("failed to list journal entries", err)
	}
	defer cur.Close(ctx)

	entries := []*domain.JournalEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, wrapStorageErr("failed to decode journal entries", err)
	}
	return entries, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"transport-catalog/internal/database"
	"transport-catalog/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJournalRepository_MarkStep(t *testing.T) {
	repo := NewJournalRepository(testDB)
	ctx := context.Background()
	clearCollection(t, database.CollJournal)

	entry := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "create_order",
		CreatedAt: time.Now(),
		Steps: []domain.JournalStep{
			{Action: domain.StepInsertOrder, OrderID: primitive.NewObjectID()},
			{Action: domain.StepDecrementStock, ProductName: "Ticket simple", Quantity: 2},
		},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.MarkStep(ctx, entry.ID, 1, true); err != nil {
		t.Fatalf("mark step: %v", err)
	}

	entries, err := repo.ListOlderThan(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("listed %d entries, want 1", len(entries))
	}
	stored := entries[0]
	if stored.Steps[0].Done || !stored.Steps[1].Done {
		t.Errorf("step flags = [%v, %v], want [false, true]", stored.Steps[0].Done, stored.Steps[1].Done)
	}

	if err := repo.MarkStep(ctx, entry.ID, 1, false); err != nil {
		t.Fatalf("unmark step: %v", err)
	}
	entries, _ = repo.ListOlderThan(ctx, 0)
	if entries[0].Steps[1].Done {
		t.Error("step still marked done after unmark")
	}
}

func TestJournalRepository_ListOlderThan(t *testing.T) {
	repo := NewJournalRepository(testDB)
	ctx := context.Background()
	clearCollection(t, database.CollJournal)

	old := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "create_review",
		CreatedAt: time.Now().Add(-10 * time.Minute),
		Steps:     []domain.JournalStep{{Action: domain.StepInsertReview}},
	}
	fresh := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "create_order",
		CreatedAt: time.Now(),
		Steps:     []domain.JournalStep{{Action: domain.StepInsertOrder}},
	}
	for _, e := range []*domain.JournalEntry{old, fresh} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	stale, err := repo.ListOlderThan(ctx, time.Minute)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != old.ID {
		t.Fatalf("expected only the old entry, got %d entries", len(stale))
	}

	if err := repo.Delete(ctx, old.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stale, _ = repo.ListOlderThan(ctx, time.Minute)
	if len(stale) != 0 {
		t.Errorf("deleted entry still listed")
	}
}

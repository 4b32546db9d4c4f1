package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/repository"
)

// repairAge is how old an incomplete journal entry must be before the
// repair pass touches it, so an in-flight operation is never raced.
const repairAge = time.Minute

type stepFunc func(ctx context.Context) error

// runJournaled executes the sub-steps of a multi-document mutation under
// an intent record. steps[i] performs the write described by
// entry.Steps[i]. On a mid-sequence failure every committed step is
// compensated in reverse; if that rollback cannot complete the caller
// receives a PartialApplicationError naming the committed steps, and the
// journal entry stays behind for RepairIncomplete.
func (s *consistencyService) runJournaled(ctx context.Context, entry *domain.JournalEntry, steps []stepFunc) error {
	if len(steps) != len(entry.Steps) {
		return fmt.Errorf("journal entry %s declares %d steps, got %d", entry.OpID, len(entry.Steps), len(steps))
	}

	if err := s.journal.Create(ctx, entry); err != nil {
		return err
	}

	for i, run := range steps {
		err := run(ctx)
		if err == nil {
			entry.Steps[i].Done = true
			err = s.journal.MarkStep(ctx, entry.ID, i, true)
		}
		if err != nil {
			if compErr := s.compensate(ctx, entry); compErr != nil {
				return &domain.PartialApplicationError{
					Op:        entry.Op,
					Committed: entry.CommittedSteps(),
					Err:       errors.Join(err, compErr),
				}
			}
			// Rolled back cleanly; surface the causal error.
			_ = s.journal.Delete(ctx, entry.ID)
			return err
		}
	}

	// A failure here leaves an all-done entry, which the repair pass
	// recognizes as complete and simply discards.
	_ = s.journal.Delete(ctx, entry.ID)
	return nil
}

// compensate undoes the committed steps of entry in reverse order,
// unmarking each one as its inverse lands.
func (s *consistencyService) compensate(ctx context.Context, entry *domain.JournalEntry) error {
	var errs []error
	for i := len(entry.Steps) - 1; i >= 0; i-- {
		step := entry.Steps[i]
		if !step.Done {
			continue
		}
		if err := s.undoStep(ctx, step); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", step.Action, err))
			continue
		}
		entry.Steps[i].Done = false
		if err := s.journal.MarkStep(ctx, entry.ID, i, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// undoStep applies the inverse of one committed sub-step. Referenced
// entities deleted out of band make the inverse a no-op rather than an
// error; the dangling-reference policy applies during rollback too.
func (s *consistencyService) undoStep(ctx context.Context, step domain.JournalStep) error {
	switch step.Action {
	case domain.StepInsertOrder:
		_, err := s.orders.Delete(ctx, step.OrderID)
		return err
	case domain.StepAppendHistory:
		return s.users.RemoveOrder(ctx, step.UserID, step.OrderID)
	case domain.StepDecrementStock:
		return s.products.AdjustStock(ctx, step.ProductName, step.Quantity)
	case domain.StepRemoveHistory:
		err := s.users.AppendOrder(ctx, step.UserID, step.OrderID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	case domain.StepInsertReview:
		_, err := s.reviews.Delete(ctx, step.ReviewID)
		return err
	case domain.StepIncPopularity:
		return s.products.DecrementPopularity(ctx, step.ProductName)
	case domain.StepDecPopularity:
		err := s.products.IncrementPopularity(ctx, step.ProductName)
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil
		}
		return err
	case domain.StepDeleteOrder, domain.StepDeleteReview:
		// Terminal deletes are only marked done when the operation
		// finished; there is nothing to restore.
		return nil
	default:
		return fmt.Errorf("unknown journal step %q", step.Action)
	}
}

// RepairIncomplete resolves stale journal entries: all-done entries are
// completed operations whose cleanup failed and are discarded, anything
// else is compensated.
func (s *consistencyService) RepairIncomplete(ctx context.Context) (int, error) {
	entries, err := s.journal.ListOlderThan(ctx, repairAge)
	if err != nil {
		return 0, err
	}

	repaired := 0
	var errs []error
	for _, entry := range entries {
		if len(entry.CommittedSteps()) < len(entry.Steps) {
			if err := s.compensate(ctx, entry); err != nil {
				errs = append(errs, fmt.Errorf("repair %s (%s): %w", entry.Op, entry.OpID, err))
				continue
			}
		}
		if err := s.journal.Delete(ctx, entry.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		repaired++
	}
	return repaired, errors.Join(errs...)
}

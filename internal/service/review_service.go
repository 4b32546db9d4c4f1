package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"transport-catalog/internal/domain"
	"transport-catalog/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateReview validates the input, requires the product and user to
// exist, then inserts the review and increments the product's popularity
// as one recoverable sequence.
func (s *consistencyService) CreateReview(ctx context.Context, in CreateReviewInput) (*domain.Review, error) {
	if in.Rating < 0 || in.Rating > 5 {
		return nil, &domain.ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
	}
	if strings.TrimSpace(in.Comment) == "" {
		return nil, &domain.ValidationError{Field: "comment", Reason: "must not be empty"}
	}

	product, err := s.products.FindByName(ctx, in.ProductName)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, in.UserEmail)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:          primitive.NewObjectID(),
		ProductName: product.Name,
		UserEmail:   user.Email,
		Comment:     strings.TrimSpace(in.Comment),
		Rating:      in.Rating,
		Valid:       true,
		CreatedAt:   time.Now(),
	}

	entry := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "create_review",
		CreatedAt: time.Now(),
		Steps: []domain.JournalStep{
			{Action: domain.StepInsertReview, ReviewID: review.ID},
			{Action: domain.StepIncPopularity, ProductName: product.Name},
		},
	}
	steps := []stepFunc{
		func(ctx context.Context) error { return s.reviews.Create(ctx, review) },
		func(ctx context.Context) error { return s.products.IncrementPopularity(ctx, product.Name) },
	}

	if err := s.runJournaled(ctx, entry, steps); err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews retrieves every review left on a product.
func (s *consistencyService) ListReviews(ctx context.Context, productName string) ([]*domain.Review, error) {
	return s.reviews.ListByProduct(ctx, productName)
}

// DeleteReview decrements the referenced product's popularity (clamped
// at zero, skipped when the product is gone) and then deletes the
// review. Returns whether a review was removed.
func (s *consistencyService) DeleteReview(ctx context.Context, reviewID primitive.ObjectID) (bool, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return false, nil
		}
		return false, err
	}

	// The popularity update is skipped when the product is gone or the
	// counter already sits at zero, leaving a plain single-document
	// delete. The counter never goes negative, even on a double delete.
	product, err := s.products.FindByName(ctx, review.ProductName)
	if errors.Is(err, repository.ErrProductNotFound) || (err == nil && product.Popularity == 0) {
		return s.reviews.Delete(ctx, review.ID)
	}
	if err != nil {
		return false, err
	}

	entry := &domain.JournalEntry{
		ID:        primitive.NewObjectID(),
		OpID:      uuid.NewString(),
		Op:        "delete_review",
		CreatedAt: time.Now(),
		Steps: []domain.JournalStep{
			{Action: domain.StepDecPopularity, ProductName: review.ProductName},
			{Action: domain.StepDeleteReview, ReviewID: review.ID},
		},
	}
	steps := []stepFunc{
		func(ctx context.Context) error { return s.products.DecrementPopularity(ctx, review.ProductName) },
		func(ctx context.Context) error {
			_, err := s.reviews.Delete(ctx, review.ID)
			return err
		},
	}

	if err := s.runJournaled(ctx, entry, steps); err != nil {
		return false, err
	}
	return true, nil
}

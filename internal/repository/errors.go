package repository

import (
	"context"
	"errors"
	"fmt"

	"transport-catalog/internal/domain"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrReviewNotFound  = errors.New("review not found")
)

// wrapStorageErr translates backend-specific failures into the service
// error taxonomy. Timeouts and network failures become
// domain.ErrStorageUnavailable so callers never see driver internals;
// everything else is wrapped with the operation description.
func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrStorageUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists for tenant")
	ErrConcurrentModification    = errors.New("subscription was modified concurrently")
	ErrInvalidStatusTransition   = errors.New("invalid status transition")
	ErrInvalidPlan               = errors.New("invalid plan")
	ErrAlreadyCancelled          = errors.New("subscription already cancelled")
	ErrNoScheduledDowngrade      = errors.New("no scheduled downgrade")
	ErrSubscriptionCancelled     = errors.New("subscription is cancelled")
	ErrNotCancelled              = errors.New("subscription is not cancelled")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}

package services

import (
	"errors"
	"fmt"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrPhotoLimitReached    = errors.New("photo limit reached")
	ErrPhotoNotFound        = errors.New("photo not in profile")
	ErrVersionConflict      = errors.New("profile was modified concurrently")
	ErrSubscriptionRequired = errors.New("an active subscription is required")
	ErrPlanNotFound         = errors.New("membership plan not found")
	ErrInvalidSwipe         = errors.New("invalid swipe")
	ErrPaymentDeclined      = errors.New("payment was not completed")
	ErrInvalidObjectPath    = errors.New("object path is outside the caller's prefix")
	ErrObjectNotFound       = errors.New("uploaded object not found")
	ErrOrderNotOwned        = errors.New("order does not belong to this user")
)

// PartialWriteError reports a multi-store write where the first store
// committed and a later one failed. Nothing is rolled back.
type PartialWriteError struct {
	Committed string
	Failed    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s saved but %s failed: %v", e.Committed, e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

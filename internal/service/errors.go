package service

import "fmt"

// The error taxonomy surfaced to callers. Validation failures map to
// 400, missing resources to 404, state conflicts to 409, and storage
// failures to 500.

// ValidationError reports malformed input, rejected before any mutation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NotFoundError reports an absent cart, order, product or coupon
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// Conflict reasons
const (
	ReasonEmptyCart          = "empty_cart"
	ReasonCheckoutInProgress = "checkout_in_progress"
	ReasonAlreadyPaid        = "already_paid"
	ReasonAlreadyReviewed    = "already_reviewed"
	ReasonOrderNotPaid       = "order_not_paid"
	ReasonKeyOwnedByOther    = "idempotency_key_conflict"
)

// ConflictError reports an operation rejected by current state; the
// caller must re-fetch before retrying.
type ConflictError struct {
	Reason  string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict (%s): %s", e.Reason, e.Message)
}

// StorageError wraps a backing-store failure. Idempotent reads may be
// retried; checkout/pay writes only with an idempotency key.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

package store

import "errors"

// Sentinel errors returned by the store. Services map these onto the
// API error taxonomy; callers must not match on error strings.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrAlreadyPaid     = errors.New("payment already completed")
	ErrAlreadyReviewed = errors.New("order already reviewed")
	ErrDuplicateCode   = errors.New("coupon code already exists")
	ErrDuplicateKey    = errors.New("idempotency key already used")
)

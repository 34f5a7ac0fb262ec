package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCheckedOut = "ORDER_CHECKED_OUT"
	EventTypeCouponApplied   = "COUPON_APPLIED"
	EventTypeOrderPaid       = "ORDER_PAID"
	EventTypeOrderReviewed   = "ORDER_REVIEWED"
	EventTypeCouponGenerated = "COUPON_GENERATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCheckedOutEvent published after a cart is converted into an order
type OrderCheckedOutEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	OriginalTotal decimal.Decimal `json:"original_total_amount"`
	Items         []OrderLineData `json:"items"`
}

// CouponAppliedEvent published after a coupon is attached to a pending order
type CouponAppliedEvent struct {
	BaseEvent
	OrderID            int64           `json:"order_id"`
	CouponCode         string          `json:"coupon_code"`
	DiscountPercentage int             `json:"discount_percentage"`
	AmountSaved        decimal.Decimal `json:"amount_saved"`
}

// OrderPaidEvent published when an order transitions to paid
type OrderPaidEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	CouponCode string          `json:"coupon_code,omitempty"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// OrderReviewedEvent published when a paid order receives its review
type OrderReviewedEvent struct {
	BaseEvent
	OrderID int64 `json:"order_id"`
	Rating  int   `json:"rating"`
}

// CouponGeneratedEvent published when a new coupon code is minted
type CouponGeneratedEvent struct {
	BaseEvent
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discount_percentage"`
}

// OrderLineData represents frozen line-item data carried in events
type OrderLineData struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

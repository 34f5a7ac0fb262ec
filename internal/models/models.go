package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	Rating      int             `db:"rating" json:"rating"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CartItem represents a single product entry in a user's cart
type CartItem struct {
	UserID    int64     `db:"user_id" json:"-"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// Cart is the live pre-checkout collection for one user
type Cart struct {
	UserID  int64      `json:"user_id"`
	Version int64      `json:"-"`
	Items   []CartItem `json:"items"`
}

// Coupon is a named discount percentage, immutable once generated
type Coupon struct {
	ID                 int64     `db:"id" json:"id"`
	Code               string    `db:"code" json:"code"`
	DiscountPercentage int       `db:"discount_percentage" json:"discount_percentage"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Order is the immutable snapshot of a checked-out cart.
// Line items and the original total never change after creation.
type Order struct {
	ID                  int64           `db:"id" json:"id"`
	UserID              int64           `db:"user_id" json:"user_id"`
	OriginalTotalAmount decimal.Decimal `db:"original_total_amount" json:"original_total_amount"`
	IdempotencyKey      string          `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is one frozen line of an order snapshot
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

// Payment is the mutable payment state attached to an order
type Payment struct {
	ID                 int64           `db:"id" json:"id"`
	OrderID            int64           `db:"order_id" json:"order_id"`
	Status             string          `db:"status" json:"status"`
	CouponCode         string          `db:"coupon_code" json:"coupon_code,omitempty"`
	DiscountPercentage int             `db:"discount_percentage" json:"discount_percentage"`
	AmountSaved        decimal.Decimal `db:"amount_saved" json:"amount_saved"`
	AmountDue          decimal.Decimal `db:"amount_due" json:"amount_due"`
	AmountPaid         decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	PaidAt             *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// Review is the single post-payment review of an order
type Review struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Payment statuses. PENDING transitions to PAID exactly once; PAID is terminal.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-service/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by its checkout idempotency
// key; (nil, nil) when absent.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves the frozen line items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetPaymentByOrderID retrieves the payment record for an order
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ApplyCouponToPayment attaches coupon details to a pending payment.
// The conditional WHERE keeps it from ever touching a paid record;
// ErrAlreadyPaid is returned when zero rows match.
func (s *Store) ApplyCouponToPayment(ctx context.Context, orderID int64, code string, discountPercentage int, amountSaved, amountDue decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET coupon_code = $1, discount_percentage = $2, amount_saved = $3,
		    amount_due = $4, updated_at = NOW()
		WHERE order_id = $5 AND status = $6`,
		code, discountPercentage, amountSaved, amountDue, orderID, models.PaymentStatusPending)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: order %d", ErrAlreadyPaid, orderID)
	}
	return nil
}

// MarkPaymentPaid transitions a pending payment to paid. The transition
// is a single conditional update, so two concurrent calls cannot both
// succeed; the loser gets ErrAlreadyPaid.
func (s *Store) MarkPaymentPaid(ctx context.Context, orderID int64, amountPaid decimal.Decimal) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, `
		UPDATE payments
		SET status = $1, amount_paid = $2, paid_at = NOW(), updated_at = NOW()
		WHERE order_id = $3 AND status = $4
		RETURNING *`,
		models.PaymentStatusPaid, amountPaid, orderID, models.PaymentStatusPending)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: order %d", ErrAlreadyPaid, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetReviewByOrderID retrieves the review for an order; (nil, nil) when absent
func (s *Store) GetReviewByOrderID(ctx context.Context, orderID int64) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateReview inserts the single review for an order. The unique
// constraint on order_id makes a second insert ErrAlreadyReviewed.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (order_id, rating, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, review, query, review.OrderID, review.Rating, review.Comment)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: order %d", ErrAlreadyReviewed, review.OrderID)
	}
	return err
}

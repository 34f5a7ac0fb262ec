package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ensureCart upserts the carts row and bumps its version counter.
// Every cart mutation goes through this so concurrent checkouts can
// serialize on the row.
func ensureCart(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO carts (user_id, version) VALUES ($1, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET version = carts.version + 1, updated_at = NOW()`, userID)
	return err
}

// AddCartItem increments the quantity for (userID, productID), creating
// the item on first add.
func (s *Store) AddCartItem(ctx context.Context, userID, productID int64, quantity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCart(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return tx.Commit()
}

// SetCartItemQuantity overwrites the quantity for (userID, productID).
// Callers handle quantity <= 0 by removing the item instead.
func (s *Store) SetCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCart(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity`,
		userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to set cart item quantity: %w", err)
	}

	return tx.Commit()
}

// RemoveCartItem deletes the item; no-op when absent.
func (s *Store) RemoveCartItem(ctx context.Context, userID, productID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCart(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2",
		userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return tx.Commit()
}

// GetCartItems returns the current items for a user, oldest first.
// An absent cart is an empty slice, never an error.
func (s *Store) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE user_id = $1 ORDER BY added_at, product_id", userID)
	return items, err
}

// ClearCart deletes every item in the user's cart
func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureCart(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

// cartLine is a cart item joined against the current catalog price
type cartLine struct {
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
}

// CheckoutCart converts the user's cart into an immutable order snapshot
// plus a pending payment, and clears the cart, all in one transaction.
// The carts row is locked FOR UPDATE so two concurrent checkouts for the
// same user serialize; the loser finds the cart empty.
func (s *Store) CheckoutCart(ctx context.Context, userID int64, idempotencyKey string) (*models.Order, []models.OrderItem, *models.Payment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback()

	var version int64
	err = tx.GetContext(ctx, &version,
		"SELECT version FROM carts WHERE user_id = $1 FOR UPDATE", userID)
	if err == sql.ErrNoRows {
		// No carts row means the user never added anything.
		return nil, nil, nil, fmt.Errorf("%w: user %d", ErrCartEmpty, userID)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	var lines []cartLine
	err = tx.SelectContext(ctx, &lines, `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at, ci.product_id`, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: user %d", ErrCartEmpty, userID)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	total = total.Round(2)

	order := &models.Order{
		UserID:              userID,
		OriginalTotalAmount: total,
		IdempotencyKey:      idempotencyKey,
	}
	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (user_id, original_total_amount, idempotency_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		order.UserID, order.OriginalTotalAmount, order.IdempotencyKey)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		// A concurrent checkout inserted this key first.
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrDuplicateKey, idempotencyKey)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderItems := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
		err = tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create order item: %w", err)
		}
		orderItems = append(orderItems, item)
	}

	payment := &models.Payment{
		OrderID:   order.ID,
		Status:    models.PaymentStatusPending,
		AmountDue: total,
	}
	err = tx.GetContext(ctx, payment, `
		INSERT INTO payments (order_id, status, amount_due)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		payment.OrderID, payment.Status, payment.AmountDue)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE carts SET version = version + 1, updated_at = NOW() WHERE user_id = $1", userID); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to bump cart version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, err
	}
	return order, orderItems, payment, nil
}

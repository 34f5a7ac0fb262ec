package service

import (
	"context"
	"errors"
	"strconv"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// CartStore is the persistence surface the cart service needs
type CartStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) error
	SetCartItemQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, userID, productID int64) error
	GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID int64) error
}

// CartService handles the per-user pre-checkout cart
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// AddItem adds quantity of a product to the user's cart, creating the
// item on first add. Quantity must be >= 1 and the product must exist.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Message: "must be at least 1"}
	}

	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, &NotFoundError{Resource: "product", Key: strconv.FormatInt(productID, 10)}
		}
		return nil, storageErr("AddItem", err)
	}

	if err := s.store.AddCartItem(ctx, userID, productID, quantity); err != nil {
		return nil, storageErr("AddItem", err)
	}

	util.CartItemsAddedTotal.Inc()
	s.logger.Info("Cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))

	return s.GetCart(ctx, userID)
}

// UpdateQuantity sets the quantity for a cart item. A quantity of zero
// or below removes the item.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateQuantity")
	defer span.End()

	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, &NotFoundError{Resource: "product", Key: strconv.FormatInt(productID, 10)}
		}
		return nil, storageErr("UpdateQuantity", err)
	}

	if err := s.store.SetCartItemQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, storageErr("UpdateQuantity", err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem removes a product from the cart; no-op when absent
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	if err := s.store.RemoveCartItem(ctx, userID, productID); err != nil {
		return nil, storageErr("RemoveItem", err)
	}

	util.CartItemsRemovedTotal.Inc()
	return s.GetCart(ctx, userID)
}

// GetCart returns the user's current cart; an absent cart is empty,
// never an error.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	items, err := s.store.GetCartItems(ctx, userID)
	if err != nil {
		return nil, storageErr("GetCart", err)
	}

	return &models.Cart{UserID: userID, Items: items}, nil
}

// ClearCart empties the user's cart; no-op when already empty
func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.ClearCart")
	defer span.End()

	if err := s.store.ClearCart(ctx, userID); err != nil {
		return storageErr("ClearCart", err)
	}

	util.CartsClearedTotal.Inc()
	return nil
}

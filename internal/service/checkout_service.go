package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutStore is the persistence surface the checkout needs. The
// CheckoutCart implementation must create the snapshot, the pending
// payment and clear the cart atomically.
type CheckoutStore interface {
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	CheckoutCart(ctx context.Context, userID int64, idempotencyKey string) (*models.Order, []models.OrderItem, *models.Payment, error)
}

// CheckoutLocker serializes checkouts per user ahead of the database
type CheckoutLocker interface {
	AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (string, bool, error)
	ReleaseCheckoutLock(ctx context.Context, userID int64, token string) error
}

// CheckoutPublisher publishes checkout domain events
type CheckoutPublisher interface {
	PublishOrderCheckedOut(ctx context.Context, event *models.OrderCheckedOutEvent) error
}

// CheckoutResult is the snapshot handed back to the caller
type CheckoutResult struct {
	Order   *models.Order      `json:"order"`
	Items   []models.OrderItem `json:"line_items"`
	Payment *models.Payment    `json:"payment"`
}

// CheckoutService converts live carts into immutable order snapshots
type CheckoutService struct {
	store     CheckoutStore
	locker    CheckoutLocker
	publisher CheckoutPublisher
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, locker CheckoutLocker, publisher CheckoutPublisher, lockTTL time.Duration) *CheckoutService {
	return &CheckoutService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		logger:    util.GetLogger(),
	}
}

// Checkout snapshots the user's cart into an order with a pending
// payment and clears the cart. Replaying the same idempotency key
// returns the original order instead of checking out again.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, idempotencyKey string) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	existing, err := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, storageErr("Checkout", err)
	}
	if existing != nil {
		return s.replay(ctx, userID, idempotencyKey, existing)
	}

	if s.locker != nil {
		token, ok, err := s.locker.AcquireCheckoutLock(ctx, userID, s.lockTTL)
		if err != nil {
			// The transaction still serializes on the carts row; the
			// lock is only the fast path.
			s.logger.Warn("Checkout lock unavailable, relying on database",
				zap.Int64("user_id", userID), zap.Error(err))
		} else if !ok {
			util.CheckoutsFailedTotal.WithLabelValues("in_progress").Inc()
			return nil, &ConflictError{
				Reason:  ReasonCheckoutInProgress,
				Message: "another checkout for this user is in progress",
			}
		} else {
			defer func() {
				if err := s.locker.ReleaseCheckoutLock(context.Background(), userID, token); err != nil {
					s.logger.Warn("Failed to release checkout lock", zap.Error(err))
				}
			}()
		}
	}

	order, items, payment, err := s.store.CheckoutCart(ctx, userID, idempotencyKey)
	if err != nil {
		if errors.Is(err, store.ErrCartEmpty) {
			util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
			return nil, &ConflictError{Reason: ReasonEmptyCart, Message: "cart has no items"}
		}
		if errors.Is(err, store.ErrDuplicateKey) {
			// A concurrent checkout won the unique constraint on the
			// key between our pre-check and the insert.
			winner, ferr := s.store.GetOrderByIdempotencyKey(ctx, idempotencyKey)
			if ferr != nil {
				return nil, storageErr("Checkout", ferr)
			}
			if winner != nil {
				return s.replay(ctx, userID, idempotencyKey, winner)
			}
		}
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, storageErr("Checkout", err)
	}

	util.CheckoutsTotal.Inc()
	s.logger.Info("Checkout completed",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", order.ID),
		zap.String("total", order.OriginalTotalAmount.StringFixed(2)))

	if s.publisher != nil {
		lines := make([]models.OrderLineData, 0, len(items))
		for _, item := range items {
			lines = append(lines, models.OrderLineData{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}

		event := &models.OrderCheckedOutEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCheckedOut,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			UserID:        userID,
			OriginalTotal: order.OriginalTotalAmount,
			Items:         lines,
		}

		if err := s.publisher.PublishOrderCheckedOut(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCheckedOut event", zap.Error(err))
		}
	}

	return &CheckoutResult{Order: order, Items: items, Payment: payment}, nil
}

// replay resolves a checkout whose idempotency key already has an
// order. An order owned by another user is never returned; a shared or
// guessed key gets a conflict instead.
func (s *CheckoutService) replay(ctx context.Context, userID int64, idempotencyKey string, order *models.Order) (*CheckoutResult, error) {
	if order.UserID != userID {
		return nil, &ConflictError{
			Reason:  ReasonKeyOwnedByOther,
			Message: "idempotency key is already used by another user",
		}
	}

	s.logger.Info("Duplicate checkout request detected",
		zap.String("idempotency_key", idempotencyKey),
		zap.Int64("order_id", order.ID))
	return s.loadResult(ctx, order)
}

// loadResult rebuilds the checkout response for an already-created order
func (s *CheckoutService) loadResult(ctx context.Context, order *models.Order) (*CheckoutResult, error) {
	items, err := s.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, storageErr("Checkout", err)
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(order.ID, 10)}
		}
		return nil, storageErr("Checkout", err)
	}

	return &CheckoutResult{Order: order, Items: items, Payment: payment}, nil
}

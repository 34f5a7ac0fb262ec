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

// OrderStore is the persistence surface the order service needs
type OrderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	GetReviewByOrderID(ctx context.Context, orderID int64) (*models.Review, error)
	CreateReview(ctx context.Context, review *models.Review) error
}

// OrderPublisher publishes order domain events
type OrderPublisher interface {
	PublishOrderReviewed(ctx context.Context, event *models.OrderReviewedEvent) error
}

// OrderDetails is the read projection over an order, its payment and
// the optional review
type OrderDetails struct {
	Order   *models.Order      `json:"order"`
	Items   []models.OrderItem `json:"items"`
	Payment *models.Payment    `json:"payment"`
	Review  *models.Review     `json:"review,omitempty"`
}

// OrderService exposes finalized orders and their review lifecycle
type OrderService struct {
	store     OrderStore
	publisher OrderPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, publisher OrderPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Get returns an order with its line items, payment and review
func (s *OrderService) Get(ctx context.Context, orderID int64) (*OrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Get")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("Get", err)
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, storageErr("Get", err)
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, store.ErrOrderNotFound) {
		return nil, storageErr("Get", err)
	}

	review, err := s.store.GetReviewByOrderID(ctx, orderID)
	if err != nil {
		return nil, storageErr("Get", err)
	}

	return &OrderDetails{Order: order, Items: items, Payment: payment, Review: review}, nil
}

// ListByUser returns the user's orders with their payment state,
// newest first
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]OrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListByUser")
	defer span.End()

	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("ListByUser", err)
	}

	details := make([]OrderDetails, 0, len(orders))
	for i := range orders {
		payment, err := s.store.GetPaymentByOrderID(ctx, orders[i].ID)
		if err != nil && !errors.Is(err, store.ErrOrderNotFound) {
			return nil, storageErr("ListByUser", err)
		}
		details = append(details, OrderDetails{Order: &orders[i], Payment: payment})
	}

	return details, nil
}

// MarkReviewed records the single review for a paid order
func (s *OrderService) MarkReviewed(ctx context.Context, orderID int64, rating int, comment string) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.MarkReviewed")
	defer span.End()

	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("MarkReviewed", err)
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, &ConflictError{Reason: ReasonOrderNotPaid, Message: "order has not been paid"}
	}

	existing, err := s.store.GetReviewByOrderID(ctx, orderID)
	if err != nil {
		return nil, storageErr("MarkReviewed", err)
	}
	if existing != nil {
		return nil, &ConflictError{Reason: ReasonAlreadyReviewed, Message: "order already has a review"}
	}

	review := &models.Review{OrderID: orderID, Rating: rating, Comment: comment}
	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrAlreadyReviewed) {
			return nil, &ConflictError{Reason: ReasonAlreadyReviewed, Message: "order already has a review"}
		}
		return nil, storageErr("MarkReviewed", err)
	}

	util.ReviewsTotal.Inc()
	s.logger.Info("Order reviewed",
		zap.Int64("order_id", orderID),
		zap.Int("rating", rating))

	if s.publisher != nil {
		event := &models.OrderReviewedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderReviewed,
				Timestamp: time.Now(),
			},
			OrderID: orderID,
			Rating:  rating,
		}
		if err := s.publisher.PublishOrderReviewed(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderReviewed event", zap.Error(err))
		}
	}

	return review, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// ReceiptStore is the persistence surface the projector needs
type ReceiptStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
}

// ReceiptCache stores ready-made receipt documents
type ReceiptCache interface {
	CacheReceipt(ctx context.Context, orderID int64, receipt interface{}, ttl time.Duration) error
	GetReceipt(ctx context.Context, orderID int64) ([]byte, error)
}

// Receipt is the cached read model for a paid order
type Receipt struct {
	Order   *models.Order      `json:"order"`
	Items   []models.OrderItem `json:"items"`
	Payment *models.Payment    `json:"payment"`
}

// ReceiptProjector consumes OrderPaid events and materializes receipt
// documents into the cache. Events are deduplicated through the
// processed_events table, so redelivery is harmless.
type ReceiptProjector struct {
	store  ReceiptStore
	cache  ReceiptCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewReceiptProjector creates a new receipt projector
func NewReceiptProjector(store ReceiptStore, cache ReceiptCache, ttl time.Duration) *ReceiptProjector {
	return &ReceiptProjector{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// loadReceipt assembles the receipt document from the backing store
func (rp *ReceiptProjector) loadReceipt(ctx context.Context, orderID int64) (*Receipt, error) {
	order, err := rp.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}

	items, err := rp.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	payment, err := rp.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	return &Receipt{Order: order, Items: items, Payment: payment}, nil
}

// HandleOrderPaid builds and caches the receipt for a freshly paid order
func (rp *ReceiptProjector) HandleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	ctx, span := util.StartSpan(ctx, "ReceiptProjector.HandleOrderPaid")
	defer span.End()

	processed, err := rp.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		rp.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	receipt, err := rp.loadReceipt(ctx, event.OrderID)
	if err != nil {
		return err
	}

	if err := rp.cache.CacheReceipt(ctx, event.OrderID, receipt, rp.ttl); err != nil {
		return fmt.Errorf("failed to cache receipt: %w", err)
	}

	util.ReceiptsCachedTotal.Inc()

	if err := rp.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		rp.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	rp.logger.Info("Receipt cached", zap.Int64("order_id", event.OrderID))
	return nil
}

// Receipt serves the receipt document for a paid order as raw JSON.
// A cache miss rebuilds the document from the store and re-caches it,
// so an evicted receipt stays readable. Unpaid orders have no receipt.
func (rp *ReceiptProjector) Receipt(ctx context.Context, orderID int64) ([]byte, error) {
	ctx, span := util.StartSpan(ctx, "ReceiptProjector.Receipt")
	defer span.End()

	raw, err := rp.cache.GetReceipt(ctx, orderID)
	if err != nil {
		rp.logger.Warn("Receipt cache read failed", zap.Error(err))
	} else if raw != nil {
		return raw, nil
	}

	payment, err := rp.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("Receipt", err)
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, &NotFoundError{Resource: "receipt", Key: strconv.FormatInt(orderID, 10)}
	}

	receipt, err := rp.loadReceipt(ctx, orderID)
	if err != nil {
		return nil, storageErr("Receipt", err)
	}

	if err := rp.cache.CacheReceipt(ctx, orderID, receipt, rp.ttl); err != nil {
		rp.logger.Warn("Receipt cache write failed", zap.Error(err))
	}

	return json.Marshal(receipt)
}

package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCheckedOut publishes an OrderCheckedOut event
func (ep *EventPublisher) PublishOrderCheckedOut(ctx context.Context, event *models.OrderCheckedOutEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCouponApplied publishes a CouponApplied event
func (ep *EventPublisher) PublishCouponApplied(ctx context.Context, event *models.CouponAppliedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderPaid publishes an OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderReviewed publishes an OrderReviewed event
func (ep *EventPublisher) PublishOrderReviewed(ctx context.Context, event *models.OrderReviewedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCouponGenerated publishes a CouponGenerated event
func (ep *EventPublisher) PublishCouponGenerated(ctx context.Context, event *models.CouponGeneratedEvent) error {
	key := fmt.Sprintf("coupon-%s", event.Code)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes consumed events to registered handlers
type EventHandler struct {
	logger            *zap.Logger
	onOrderCheckedOut func(context.Context, *models.OrderCheckedOutEvent) error
	onOrderPaid       func(context.Context, *models.OrderPaidEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderCheckedOut registers a handler for OrderCheckedOut events
func (eh *EventHandler) OnOrderCheckedOut(handler func(context.Context, *models.OrderCheckedOutEvent) error) {
	eh.onOrderCheckedOut = handler
}

// OnOrderPaid registers a handler for OrderPaid events
func (eh *EventHandler) OnOrderPaid(handler func(context.Context, *models.OrderPaidEvent) error) {
	eh.onOrderPaid = handler
}

// HandleMessage routes messages to the appropriate handler. Event types
// without a registered handler are committed and skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderCheckedOut:
		if eh.onOrderCheckedOut != nil {
			var event models.OrderCheckedOutEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCheckedOut event: %w", err)
			}
			return eh.onOrderCheckedOut(ctx, &event)
		}

	case models.EventTypeOrderPaid:
		if eh.onOrderPaid != nil {
			var event models.OrderPaidEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPaid event: %w", err)
			}
			return eh.onOrderPaid(ctx, &event)
		}
	}

	return nil
}

package worker

import (
	"context"

	"shop-service/internal/broker"
	"shop-service/internal/service"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// OrderEventsWorker consumes order events and feeds the receipt
// projector in the background.
type OrderEventsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewOrderEventsWorker creates a new order events worker
func NewOrderEventsWorker(consumer *broker.Consumer, projector *service.ReceiptProjector) *OrderEventsWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPaid(projector.HandleOrderPaid)

	return &OrderEventsWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker; blocks until the context is cancelled
func (w *OrderEventsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order events worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderEventsWorker) Stop() error {
	w.logger.Info("Stopping order events worker")
	return w.consumer.Close()
}

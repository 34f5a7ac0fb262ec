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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentStore is the persistence surface the payment service needs
type PaymentStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	ApplyCouponToPayment(ctx context.Context, orderID int64, code string, discountPercentage int, amountSaved, amountDue decimal.Decimal) error
	MarkPaymentPaid(ctx context.Context, orderID int64, amountPaid decimal.Decimal) (*models.Payment, error)
}

// CouponLookup resolves coupon codes; satisfied by CouponService
type CouponLookup interface {
	Lookup(ctx context.Context, code string) (*models.Coupon, error)
}

// PaymentPublisher publishes payment domain events
type PaymentPublisher interface {
	PublishCouponApplied(ctx context.Context, event *models.CouponAppliedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
}

// PaymentService moves payment records from pending to paid. PAID is
// terminal; no coupon or payment operation applies afterwards.
type PaymentService struct {
	store     PaymentStore
	coupons   CouponLookup
	publisher PaymentPublisher
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, coupons CouponLookup, publisher PaymentPublisher) *PaymentService {
	return &PaymentService{
		store:     store,
		coupons:   coupons,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ApplyCoupon attaches a coupon to a pending payment. The saved amount
// is clamped to the original total so the due amount never goes
// negative. Applying a different coupon overwrites the previous one;
// re-applying the same code is a no-op in effect.
func (ps *PaymentService) ApplyCoupon(ctx context.Context, orderID int64, code string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ApplyCoupon")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("ApplyCoupon", err)
	}

	payment, err := ps.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("ApplyCoupon", err)
	}
	if payment.Status == models.PaymentStatusPaid {
		return nil, &ConflictError{Reason: ReasonAlreadyPaid, Message: "order is already paid"}
	}

	coupon, err := ps.coupons.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	total := order.OriginalTotalAmount
	saved := total.Mul(decimal.NewFromInt(int64(coupon.DiscountPercentage))).
		Div(decimal.NewFromInt(100)).Round(2)
	if saved.GreaterThan(total) {
		saved = total
	}
	due := total.Sub(saved)

	if err := ps.store.ApplyCouponToPayment(ctx, orderID, coupon.Code, coupon.DiscountPercentage, saved, due); err != nil {
		if errors.Is(err, store.ErrAlreadyPaid) {
			return nil, &ConflictError{Reason: ReasonAlreadyPaid, Message: "order is already paid"}
		}
		return nil, storageErr("ApplyCoupon", err)
	}

	util.CouponsAppliedTotal.Inc()
	ps.logger.Info("Coupon applied",
		zap.Int64("order_id", orderID),
		zap.String("coupon_code", coupon.Code),
		zap.String("amount_saved", saved.StringFixed(2)))

	if ps.publisher != nil {
		event := &models.CouponAppliedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeCouponApplied,
				Timestamp: time.Now(),
			},
			OrderID:            orderID,
			CouponCode:         coupon.Code,
			DiscountPercentage: coupon.DiscountPercentage,
			AmountSaved:        saved,
		}
		if err := ps.publisher.PublishCouponApplied(ctx, event); err != nil {
			ps.logger.Error("Failed to publish CouponApplied event", zap.Error(err))
		}
	}

	payment.CouponCode = coupon.Code
	payment.DiscountPercentage = coupon.DiscountPercentage
	payment.AmountSaved = saved
	payment.AmountDue = due
	return payment, nil
}

// Pay transitions a pending payment to paid. An optional coupon code is
// applied first. The caller-supplied amountPaid is recorded as observed;
// the server-computed due amount lives in amount_due next to it.
func (ps *PaymentService) Pay(ctx context.Context, orderID int64, amountPaid decimal.Decimal, couponCode string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Pay")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	if amountPaid.IsNegative() {
		return nil, &ValidationError{Field: "amount_paid", Message: "must not be negative"}
	}

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			util.PaymentsFailedTotal.WithLabelValues("order_not_found").Inc()
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("Pay", err)
	}

	if couponCode != "" {
		if _, err := ps.ApplyCoupon(ctx, orderID, couponCode); err != nil {
			return nil, err
		}
	}

	payment, err := ps.store.MarkPaymentPaid(ctx, orderID, amountPaid.Round(2))
	if err != nil {
		if errors.Is(err, store.ErrAlreadyPaid) {
			util.PaymentsFailedTotal.WithLabelValues("already_paid").Inc()
			return nil, &ConflictError{Reason: ReasonAlreadyPaid, Message: "order is already paid"}
		}
		return nil, storageErr("Pay", err)
	}

	util.PaymentsTotal.Inc()
	ps.logger.Info("Order paid",
		zap.Int64("order_id", orderID),
		zap.String("amount_due", payment.AmountDue.StringFixed(2)),
		zap.String("amount_paid", payment.AmountPaid.StringFixed(2)))

	if ps.publisher != nil {
		event := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:    orderID,
			UserID:     order.UserID,
			CouponCode: payment.CouponCode,
			AmountDue:  payment.AmountDue,
			AmountPaid: payment.AmountPaid,
		}
		if err := ps.publisher.PublishOrderPaid(ctx, event); err != nil {
			ps.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return payment, nil
}

// GetPayment retrieves the payment record for an order
func (ps *PaymentService) GetPayment(ctx context.Context, orderID int64) (*models.Payment, error) {
	payment, err := ps.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", Key: strconv.FormatInt(orderID, 10)}
		}
		return nil, storageErr("GetPayment", err)
	}
	return payment, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"shop-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderFixture checks out a one-item cart and returns the order service
// plus the order ID; pay toggles whether the order gets paid.
func orderFixture(t *testing.T, pay bool) (*OrderService, *memStore, int64) {
	t.Helper()
	st := newMemStore()
	st.addProduct(1, "Desk Lamp", "32.00")
	ctx := context.Background()

	require.NoError(t, st.AddCartItem(ctx, 7, 1, 1))
	order, _, _, err := st.CheckoutCart(ctx, 7, "order-fixture")
	require.NoError(t, err)

	if pay {
		_, err := st.MarkPaymentPaid(ctx, order.ID, decimal.RequireFromString("32.00"))
		require.NoError(t, err)
	}

	return NewOrderService(st, &fakePublisher{}), st, order.ID
}

func TestGetOrder(t *testing.T) {
	svc, _, orderID := orderFixture(t, false)

	details, err := svc.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, details.Order.ID)
	require.Len(t, details.Items, 1)
	assert.Equal(t, models.PaymentStatusPending, details.Payment.Status)
	assert.Nil(t, details.Review)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, _, _ := orderFixture(t, false)

	_, err := svc.Get(context.Background(), 12345)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestListByUser(t *testing.T) {
	svc, st, orderID := orderFixture(t, false)
	ctx := context.Background()

	// a second order for the same user
	require.NoError(t, st.AddCartItem(ctx, 7, 1, 2))
	_, _, _, err := st.CheckoutCart(ctx, 7, "second-order")
	require.NoError(t, err)

	orders, err := svc.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	// other users see nothing
	orders, err = svc.ListByUser(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_ = orderID
}

func TestMarkReviewed(t *testing.T) {
	svc, _, orderID := orderFixture(t, true)

	review, err := svc.MarkReviewed(context.Background(), orderID, 5, "great mouse")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	details, err := svc.Get(context.Background(), orderID)
	require.NoError(t, err)
	require.NotNil(t, details.Review)
}

func TestMarkReviewed_UnpaidFails(t *testing.T) {
	svc, _, orderID := orderFixture(t, false)

	for _, rating := range []int{1, 3, 5} {
		_, err := svc.MarkReviewed(context.Background(), orderID, rating, "any comment")
		var cfErr *ConflictError
		require.ErrorAs(t, err, &cfErr)
		assert.Equal(t, ReasonOrderNotPaid, cfErr.Reason)
	}
}

func TestMarkReviewed_TwiceFails(t *testing.T) {
	svc, _, orderID := orderFixture(t, true)
	ctx := context.Background()

	_, err := svc.MarkReviewed(ctx, orderID, 4, "solid")
	require.NoError(t, err)

	_, err = svc.MarkReviewed(ctx, orderID, 2, "changed my mind")
	var cfErr *ConflictError
	require.ErrorAs(t, err, &cfErr)
	assert.Equal(t, ReasonAlreadyReviewed, cfErr.Reason)
}

func TestMarkReviewed_RatingRange(t *testing.T) {
	svc, _, orderID := orderFixture(t, true)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.MarkReviewed(context.Background(), orderID, rating, "")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "rating", vErr.Field)
	}
}

func TestReceiptProjector(t *testing.T) {
	_, st, orderID := orderFixture(t, true)
	cache := newFakeReceiptCache()
	projector := NewReceiptProjector(st, cache, time.Hour)

	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeOrderPaid,
		},
		OrderID: orderID,
	}

	require.NoError(t, projector.HandleOrderPaid(context.Background(), event))

	receipt, ok := cache.receipts[orderID].(*Receipt)
	require.True(t, ok)
	assert.Equal(t, orderID, receipt.Order.ID)
	assert.Equal(t, models.PaymentStatusPaid, receipt.Payment.Status)

	// redelivery of the same event is a no-op
	cache.receipts = make(map[int64]interface{})
	require.NoError(t, projector.HandleOrderPaid(context.Background(), event))
	assert.Empty(t, cache.receipts)
}

func TestReceiptRead(t *testing.T) {
	_, st, orderID := orderFixture(t, true)
	cache := newFakeReceiptCache()
	projector := NewReceiptProjector(st, cache, time.Hour)
	ctx := context.Background()

	// an evicted receipt is rebuilt from the store and re-cached
	raw, err := projector.Receipt(ctx, orderID)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"PAID"`)
	assert.Contains(t, cache.receipts, orderID)

	// a second read is served from the cache
	raw, err = projector.Receipt(ctx, orderID)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"PAID"`)
}

func TestReceiptRead_UnpaidOrder(t *testing.T) {
	_, st, orderID := orderFixture(t, false)
	projector := NewReceiptProjector(st, newFakeReceiptCache(), time.Hour)

	_, err := projector.Receipt(context.Background(), orderID)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "receipt", nfErr.Resource)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for store.Store that mirrors its
// semantics, including the sentinel errors and the atomic
// checkout/pay behaviour.
type memStore struct {
	mu sync.Mutex

	products  map[int64]*models.Product
	cartItems map[int64][]models.CartItem
	orders    map[int64]*models.Order
	ordersKey map[string]int64
	items     map[int64][]models.OrderItem
	payments  map[int64]*models.Payment
	coupons   map[string]*models.Coupon
	reviews   map[int64]*models.Review
	processed map[string]bool

	nextOrderID int64
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[int64]*models.Product),
		cartItems: make(map[int64][]models.CartItem),
		orders:    make(map[int64]*models.Order),
		ordersKey: make(map[string]int64),
		items:     make(map[int64][]models.OrderItem),
		payments:  make(map[int64]*models.Payment),
		coupons:   make(map[string]*models.Coupon),
		reviews:   make(map[int64]*models.Review),
		processed: make(map[string]bool),
	}
}

func (m *memStore) addProduct(id int64, name, price string) {
	m.products[id] = &models.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}

func (m *memStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", store.ErrProductNotFound, id)
	}
	return p, nil
}

func (m *memStore) GetProducts(_ context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []models.Product{}
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) AddCartItem(_ context.Context, userID, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	items := m.cartItems[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	m.cartItems[userID] = append(items, models.CartItem{
		UserID: userID, ProductID: productID, Quantity: quantity, AddedAt: time.Now(),
	})
	return nil
}

func (m *memStore) SetCartItemQuantity(_ context.Context, userID, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	items := m.cartItems[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}
	m.cartItems[userID] = append(items, models.CartItem{
		UserID: userID, ProductID: productID, Quantity: quantity, AddedAt: time.Now(),
	})
	return nil
}

func (m *memStore) RemoveCartItem(_ context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	items := m.cartItems[userID]
	for i := range items {
		if items[i].ProductID == productID {
			m.cartItems[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) GetCartItems(_ context.Context, userID int64) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return append([]models.CartItem{}, m.cartItems[userID]...), nil
}

func (m *memStore) ClearCart(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.cartItems[userID] = nil
	return nil
}

func (m *memStore) CheckoutCart(_ context.Context, userID int64, idempotencyKey string) (*models.Order, []models.OrderItem, *models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, nil, nil, m.failWith
	}
	cart := m.cartItems[userID]
	if len(cart) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: user %d", store.ErrCartEmpty, userID)
	}
	if _, ok := m.ordersKey[idempotencyKey]; ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", store.ErrDuplicateKey, idempotencyKey)
	}

	total := decimal.Zero
	m.nextOrderID++
	orderID := m.nextOrderID

	orderItems := make([]models.OrderItem, 0, len(cart))
	for _, ci := range cart {
		product := m.products[ci.ProductID]
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity))))
		orderItems = append(orderItems, models.OrderItem{
			ID:        int64(len(orderItems) + 1),
			OrderID:   orderID,
			ProductID: ci.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  ci.Quantity,
		})
	}
	total = total.Round(2)

	order := &models.Order{
		ID:                  orderID,
		UserID:              userID,
		OriginalTotalAmount: total,
		IdempotencyKey:      idempotencyKey,
		CreatedAt:           time.Now(),
	}
	payment := &models.Payment{
		ID:        orderID,
		OrderID:   orderID,
		Status:    models.PaymentStatusPending,
		AmountDue: total,
	}

	m.orders[orderID] = order
	m.ordersKey[idempotencyKey] = orderID
	m.items[orderID] = orderItems
	m.payments[orderID] = payment
	m.cartItems[userID] = nil

	return order, orderItems, payment, nil
}

func (m *memStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", store.ErrOrderNotFound, id)
	}
	return order, nil
}

func (m *memStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	id, ok := m.ordersKey[key]
	if !ok {
		return nil, nil
	}
	return m.orders[id], nil
}

func (m *memStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return append([]models.OrderItem{}, m.items[orderID]...), nil
}

func (m *memStore) GetOrdersByUserID(_ context.Context, userID int64) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []models.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) GetPaymentByOrderID(_ context.Context, orderID int64) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	payment, ok := m.payments[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", store.ErrOrderNotFound, orderID)
	}
	copied := *payment
	return &copied, nil
}

func (m *memStore) ApplyCouponToPayment(_ context.Context, orderID int64, code string, discountPercentage int, amountSaved, amountDue decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	payment, ok := m.payments[orderID]
	if !ok || payment.Status != models.PaymentStatusPending {
		return fmt.Errorf("%w: order %d", store.ErrAlreadyPaid, orderID)
	}
	payment.CouponCode = code
	payment.DiscountPercentage = discountPercentage
	payment.AmountSaved = amountSaved
	payment.AmountDue = amountDue
	return nil
}

func (m *memStore) MarkPaymentPaid(_ context.Context, orderID int64, amountPaid decimal.Decimal) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	payment, ok := m.payments[orderID]
	if !ok || payment.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: order %d", store.ErrAlreadyPaid, orderID)
	}
	now := time.Now()
	payment.Status = models.PaymentStatusPaid
	payment.AmountPaid = amountPaid
	payment.PaidAt = &now
	copied := *payment
	return &copied, nil
}

func (m *memStore) GetCoupon(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	coupon, ok := m.coupons[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCouponNotFound, code)
	}
	return coupon, nil
}

func (m *memStore) CreateCoupon(_ context.Context, coupon *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.coupons[coupon.Code]; ok {
		return fmt.Errorf("%w: %s", store.ErrDuplicateCode, coupon.Code)
	}
	coupon.ID = int64(len(m.coupons) + 1)
	coupon.CreatedAt = time.Now()
	m.coupons[coupon.Code] = coupon
	return nil
}

func (m *memStore) GetReviewByOrderID(_ context.Context, orderID int64) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.reviews[orderID], nil
}

func (m *memStore) CreateReview(_ context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.reviews[review.OrderID]; ok {
		return fmt.Errorf("%w: order %d", store.ErrAlreadyReviewed, review.OrderID)
	}
	review.ID = int64(len(m.reviews) + 1)
	review.CreatedAt = time.Now()
	m.reviews[review.OrderID] = review
	return nil
}

func (m *memStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *memStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = true
	return nil
}

// fakeLocker grants the lock unless told otherwise and records releases
type fakeLocker struct {
	denied   bool
	acquired int
	released int
}

func (l *fakeLocker) AcquireCheckoutLock(_ context.Context, _ int64, _ time.Duration) (string, bool, error) {
	if l.denied {
		return "", false, nil
	}
	l.acquired++
	return "token", true, nil
}

func (l *fakeLocker) ReleaseCheckoutLock(_ context.Context, _ int64, _ string) error {
	l.released++
	return nil
}

// fakePublisher records every published event
type fakePublisher struct {
	checkedOut []*models.OrderCheckedOutEvent
	applied    []*models.CouponAppliedEvent
	paid       []*models.OrderPaidEvent
	reviewed   []*models.OrderReviewedEvent
	generated  []*models.CouponGeneratedEvent
}

func (p *fakePublisher) PublishOrderCheckedOut(_ context.Context, e *models.OrderCheckedOutEvent) error {
	p.checkedOut = append(p.checkedOut, e)
	return nil
}

func (p *fakePublisher) PublishCouponApplied(_ context.Context, e *models.CouponAppliedEvent) error {
	p.applied = append(p.applied, e)
	return nil
}

func (p *fakePublisher) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	p.paid = append(p.paid, e)
	return nil
}

func (p *fakePublisher) PublishOrderReviewed(_ context.Context, e *models.OrderReviewedEvent) error {
	p.reviewed = append(p.reviewed, e)
	return nil
}

func (p *fakePublisher) PublishCouponGenerated(_ context.Context, e *models.CouponGeneratedEvent) error {
	p.generated = append(p.generated, e)
	return nil
}

// fakeReceiptCache records cached receipts by order ID
type fakeReceiptCache struct {
	receipts map[int64]interface{}
}

func newFakeReceiptCache() *fakeReceiptCache {
	return &fakeReceiptCache{receipts: make(map[int64]interface{})}
}

func (c *fakeReceiptCache) CacheReceipt(_ context.Context, orderID int64, receipt interface{}, _ time.Duration) error {
	c.receipts[orderID] = receipt
	return nil
}

func (c *fakeReceiptCache) GetReceipt(_ context.Context, orderID int64) ([]byte, error) {
	receipt, ok := c.receipts[orderID]
	if !ok {
		return nil, nil
	}
	return json.Marshal(receipt)
}

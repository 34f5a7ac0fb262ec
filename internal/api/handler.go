package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	cart     *service.CartService
	checkout *service.CheckoutService
	coupons  *service.CouponService
	payments *service.PaymentService
	orders   *service.OrderService
	receipts *service.ReceiptProjector
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	cart *service.CartService,
	checkout *service.CheckoutService,
	coupons *service.CouponService,
	payments *service.PaymentService,
	orders *service.OrderService,
	receipts *service.ReceiptProjector,
) *Handler {
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		coupons:  coupons,
		payments: payments,
		orders:   orders,
		receipts: receipts,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	router.POST("/cart/add", h.addToCart)
	router.POST("/cart/update", h.updateCart)
	router.POST("/cart/checkout", h.checkoutCart)
	router.GET("/cart/:userId", h.getCart)
	router.DELETE("/cart/:userId", h.clearCart)
	router.DELETE("/cart/:userId/items/:productId", h.removeFromCart)

	router.GET("/coupon/:code", h.getCoupon)
	router.POST("/coupon/generate", h.generateCoupon)

	router.GET("/orders/:orderId", h.getOrder)
	router.POST("/orders/:orderId/coupon", h.applyCoupon)
	router.POST("/orders/:orderId/pay", h.payOrder)
	router.POST("/orders/:orderId/reviews", h.reviewOrder)
	router.GET("/orders/:orderId/receipt", h.getReceipt)

	router.GET("/users/:userId/orders", h.listUserOrders)
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type cartItemRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) addToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}

	cart, err := h.cart.AddItem(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) updateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}

	cart, err := h.cart.UpdateQuantity(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) getCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	cart, err := h.cart.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) clearCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.cart.ClearCart(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (h *Handler) removeFromCart(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	cart, err := h.cart.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type checkoutRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *Handler) checkoutCart(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), req.UserID, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":              result.Order.ID,
		"original_total_amount": result.Order.OriginalTotalAmount,
		"line_items":            result.Items,
		"payment":               result.Payment,
	})
}

func (h *Handler) getCoupon(c *gin.Context) {
	coupon, err := h.coupons.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":                coupon.Code,
		"discount_percentage": coupon.DiscountPercentage,
	})
}

func (h *Handler) generateCoupon(c *gin.Context) {
	coupon, err := h.coupons.Generate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	details, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

type applyCouponRequest struct {
	CouponCode string `json:"coupon_code" binding:"required"`
}

func (h *Handler) applyCoupon(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}

	payment, err := h.payments.ApplyCoupon(c.Request.Context(), orderID, req.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

type payRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
	CouponCode string          `json:"coupon_code"`
}

func (h *Handler) payOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}

	payment, err := h.payments.Pay(c.Request.Context(), orderID, req.AmountPaid, req.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "paid",
		"amount_paid": payment.AmountPaid,
		"payment":     payment,
	})
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func (h *Handler) reviewOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": err.Error()})
		return
	}

	review, err := h.orders.MarkReviewed(c.Request.Context(), orderID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) getReceipt(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	raw, err := h.receipts.Receipt(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *Handler) listUserOrders(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// pathID parses a positive integer path parameter, writing the 400
// itself on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": "invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var nfErr *service.NotFoundError
	var cfErr *service.ConflictError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "validation_error", "field": vErr.Field, "details": vErr.Message,
		})
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not_found", "resource": nfErr.Resource, "details": nfErr.Error(),
		})
	case errors.As(err, &cfErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": cfErr.Reason, "details": cfErr.Message,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal_error", "details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

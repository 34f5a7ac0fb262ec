package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of items added to carts",
	})

	CartItemsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_removed_total",
		Help: "Total number of items removed from carts",
	})

	CartsClearedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carts_cleared_total",
		Help: "Total number of explicit cart clears",
	})

	CheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of successful checkouts",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the checkout operation",
		Buckets: prometheus.DefBuckets,
	})

	CouponsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupons_generated_total",
		Help: "Total number of coupons generated",
	})

	CouponLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_lookups_total",
		Help: "Total number of coupon lookups",
	}, []string{"result"})

	CouponsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupons_applied_total",
		Help: "Total number of coupons applied to pending orders",
	})

	PaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Total number of orders marked paid",
	})

	PaymentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Total number of rejected payment attempts",
	}, []string{"reason"})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	ReviewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_reviews_total",
		Help: "Total number of order reviews recorded",
	})

	ReceiptsCachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_cached_total",
		Help: "Total number of paid-order receipts cached by the worker",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

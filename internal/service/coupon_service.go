package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const couponCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CouponStore is the persistence surface the coupon service needs
type CouponStore interface {
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
}

// CouponCache is the optional read-through cache for coupon lookups
type CouponCache interface {
	CacheCoupon(ctx context.Context, coupon *models.Coupon, ttl time.Duration) error
	GetCachedCoupon(ctx context.Context, code string) (*models.Coupon, error)
}

// CouponPublisher publishes coupon domain events
type CouponPublisher interface {
	PublishCouponGenerated(ctx context.Context, event *models.CouponGeneratedEvent) error
}

// CouponService generates and looks up discount coupons. Lookup is a
// pure read; Generate is the only mutating operation.
type CouponService struct {
	store       CouponStore
	cache       CouponCache
	publisher   CouponPublisher
	codeLength  int
	maxAttempts int
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(store CouponStore, cache CouponCache, publisher CouponPublisher, codeLength, maxAttempts int, cacheTTL time.Duration) *CouponService {
	return &CouponService{
		store:       store,
		cache:       cache,
		publisher:   publisher,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
		cacheTTL:    cacheTTL,
		logger:      util.GetLogger(),
	}
}

// Lookup resolves a coupon by exact, case-sensitive code
func (s *CouponService) Lookup(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, span := util.StartSpan(ctx, "CouponService.Lookup")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.GetCachedCoupon(ctx, code)
		if err != nil {
			s.logger.Warn("Coupon cache read failed", zap.Error(err))
		} else if cached != nil {
			util.CouponLookupsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}

	coupon, err := s.store.GetCoupon(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrCouponNotFound) {
			util.CouponLookupsTotal.WithLabelValues("miss").Inc()
			return nil, &NotFoundError{Resource: "coupon", Key: code}
		}
		return nil, storageErr("Lookup", err)
	}

	util.CouponLookupsTotal.WithLabelValues("found").Inc()

	if s.cache != nil {
		if err := s.cache.CacheCoupon(ctx, coupon, s.cacheTTL); err != nil {
			s.logger.Warn("Coupon cache write failed", zap.Error(err))
		}
	}

	return coupon, nil
}

// Generate mints a new coupon with a random alphanumeric code and a
// discount percentage drawn uniformly from [0,100]. Collisions with
// existing codes are retried up to maxAttempts times.
func (s *CouponService) Generate(ctx context.Context) (*models.Coupon, error) {
	ctx, span := util.StartSpan(ctx, "CouponService.Generate")
	defer span.End()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		coupon := &models.Coupon{
			Code:               s.randomCode(),
			DiscountPercentage: rand.Intn(101),
		}

		err := s.store.CreateCoupon(ctx, coupon)
		if errors.Is(err, store.ErrDuplicateCode) {
			s.logger.Warn("Coupon code collision, retrying", zap.String("code", coupon.Code))
			continue
		}
		if err != nil {
			return nil, storageErr("Generate", err)
		}

		util.CouponsGeneratedTotal.Inc()
		s.logger.Info("Coupon generated",
			zap.String("code", coupon.Code),
			zap.Int("discount_percentage", coupon.DiscountPercentage))

		if s.cache != nil {
			if err := s.cache.CacheCoupon(ctx, coupon, s.cacheTTL); err != nil {
				s.logger.Warn("Coupon cache write failed", zap.Error(err))
			}
		}

		if s.publisher != nil {
			event := &models.CouponGeneratedEvent{
				BaseEvent: models.BaseEvent{
					EventID:   uuid.New().String(),
					EventType: models.EventTypeCouponGenerated,
					Timestamp: time.Now(),
				},
				Code:               coupon.Code,
				DiscountPercentage: coupon.DiscountPercentage,
			}
			if err := s.publisher.PublishCouponGenerated(ctx, event); err != nil {
				s.logger.Error("Failed to publish CouponGenerated event", zap.Error(err))
			}
		}

		return coupon, nil
	}

	return nil, storageErr("Generate",
		fmt.Errorf("could not find a free coupon code in %d attempts", s.maxAttempts))
}

func (s *CouponService) randomCode() string {
	code := make([]byte, s.codeLength)
	for i := range code {
		code[i] = couponCharset[rand.Intn(len(couponCharset))]
	}
	return string(code)
}

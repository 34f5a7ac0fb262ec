package service

import (
	"context"
	"testing"
	"time"

	"shop-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCouponService(st *memStore) *CouponService {
	return NewCouponService(st, nil, &fakePublisher{}, 10, 5, time.Hour)
}

func TestCouponLookup(t *testing.T) {
	st := newMemStore()
	st.coupons["SAVE20XYZ0"] = &models.Coupon{ID: 1, Code: "SAVE20XYZ0", DiscountPercentage: 20}
	svc := newCouponService(st)

	coupon, err := svc.Lookup(context.Background(), "SAVE20XYZ0")
	require.NoError(t, err)
	assert.Equal(t, 20, coupon.DiscountPercentage)
}

func TestCouponLookup_NotFound(t *testing.T) {
	svc := newCouponService(newMemStore())

	_, err := svc.Lookup(context.Background(), "NOPE")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "coupon", nfErr.Resource)
}

func TestCouponLookup_CaseSensitive(t *testing.T) {
	st := newMemStore()
	st.coupons["SAVE20XYZ0"] = &models.Coupon{ID: 1, Code: "SAVE20XYZ0", DiscountPercentage: 20}
	svc := newCouponService(st)

	_, err := svc.Lookup(context.Background(), "save20xyz0")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestCouponGenerate(t *testing.T) {
	st := newMemStore()
	pub := &fakePublisher{}
	svc := NewCouponService(st, nil, pub, 10, 5, time.Hour)

	coupon, err := svc.Generate(context.Background())
	require.NoError(t, err)

	assert.Len(t, coupon.Code, 10)
	for _, ch := range coupon.Code {
		assert.Contains(t, couponCharset, string(ch))
	}
	assert.GreaterOrEqual(t, coupon.DiscountPercentage, 0)
	assert.LessOrEqual(t, coupon.DiscountPercentage, 100)

	// generated coupons are immediately resolvable
	found, err := svc.Lookup(context.Background(), coupon.Code)
	require.NoError(t, err)
	assert.Equal(t, coupon.DiscountPercentage, found.DiscountPercentage)

	require.Len(t, pub.generated, 1)
	assert.Equal(t, coupon.Code, pub.generated[0].Code)
}

func TestCouponGenerate_UniqueCodes(t *testing.T) {
	st := newMemStore()
	svc := newCouponService(st)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		coupon, err := svc.Generate(ctx)
		require.NoError(t, err)
		assert.False(t, seen[coupon.Code], "duplicate code %s", coupon.Code)
		seen[coupon.Code] = true
	}
}

package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"shop-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireCheckoutLock takes the per-user checkout lock. Returns the
// release token and whether the lock was acquired.
func (c *Client) AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (string, bool, error) {
	key := fmt.Sprintf("checkout-lock:%d", userID)
	token := uuid.New().String()

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	return token, ok, nil
}

// ReleaseCheckoutLock releases the per-user checkout lock, but only when
// the token matches (Lua compare-and-delete, so an expired lock taken
// over by another checkout is never released from here).
func (c *Client) ReleaseCheckoutLock(ctx context.Context, userID int64, token string) error {
	key := fmt.Sprintf("checkout-lock:%d", userID)

	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{key}, token).Result(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// CacheCoupon stores a coupon under its code. Coupons are immutable once
// generated, so the cache never needs invalidation.
func (c *Client) CacheCoupon(ctx context.Context, coupon *models.Coupon, ttl time.Duration) error {
	data, err := json.Marshal(coupon)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf("coupon:%s", coupon.Code), data, ttl).Err()
}

// GetCachedCoupon retrieves a cached coupon; (nil, nil) on cache miss
func (c *Client) GetCachedCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf("coupon:%s", code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var coupon models.Coupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CacheReceipt stores the paid-order receipt document
func (c *Client) CacheReceipt(ctx context.Context, orderID int64, receipt interface{}, ttl time.Duration) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf("receipt:%d", orderID), data, ttl).Err()
}

// GetReceipt retrieves a cached receipt as raw JSON; (nil, nil) on miss
func (c *Client) GetReceipt(ctx context.Context, orderID int64) ([]byte, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf("receipt:%d", orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

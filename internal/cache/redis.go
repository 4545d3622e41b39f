package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/parkbooking/config"
	"github.com/Domenick1991/parkbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache caches spot listings and availability answers. Availability
// keys embed a generation number; bumping it on every booking mutation
// orphans all earlier answers, which then age out by TTL.
type RedisCache struct {
	client          *redis.Client
	spotsTTL        time.Duration
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, spotsTTL, availabilityTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		spotsTTL,
		availabilityTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, spotsTTL, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          client,
		spotsTTL:        spotsTTL,
		availabilityTTL: availabilityTTL,
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetSpots(ctx context.Context, filter domain.SpotFilter) ([]domain.Spot, error) {
	return c.getSpots(ctx, spotsKey(filter))
}

func (c *RedisCache) SetSpots(ctx context.Context, filter domain.SpotFilter, spots []domain.Spot) error {
	return c.setSpots(ctx, spotsKey(filter), spots, c.spotsTTL)
}

// GetAvailable returns a cached availability answer, or nil on a miss,
// together with the generation it looked under. Callers pass that
// generation back to SetAvailable so an answer computed across an
// invalidation is stored where nobody reads it.
func (c *RedisCache) GetAvailable(ctx context.Context, window domain.Window, filter domain.SpotFilter) ([]domain.Spot, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}
	spots, err := c.getSpots(ctx, availabilityKey(gen, window, filter))
	if err != nil {
		return nil, 0, err
	}
	return spots, gen, nil
}

func (c *RedisCache) SetAvailable(ctx context.Context, gen int64, window domain.Window, filter domain.SpotFilter, spots []domain.Spot) error {
	return c.setSpots(ctx, availabilityKey(gen, window, filter), spots, c.availabilityTTL)
}

// InvalidateAvailability makes every cached availability answer unreachable.
func (c *RedisCache) InvalidateAvailability(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey()).Err()
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

func (c *RedisCache) getSpots(ctx context.Context, key string) ([]domain.Spot, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	spots := make([]domain.Spot, 0)
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

func (c *RedisCache) setSpots(ctx context.Context, key string, spots []domain.Spot, ttl time.Duration) error {
	if spots == nil {
		spots = []domain.Spot{}
	}
	payload, err := json.Marshal(spots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func spotsKey(filter domain.SpotFilter) string {
	return fmt.Sprintf("cache:spots:lot=%s:type=%s", filter.ParkingLotID, filter.Type)
}

func generationKey() string {
	return "cache:availability:generation"
}

func availabilityKey(gen int64, window domain.Window, filter domain.SpotFilter) string {
	return fmt.Sprintf("cache:availability:%d:%d:%d:lot=%s:type=%s",
		gen, window.Start.UnixNano(), window.End.UnixNano(), filter.ParkingLotID, filter.Type)
}

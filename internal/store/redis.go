package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adoptme/pet-adoption/backend/internal/models"
)

const (
	listingKey = "pets:all"
	listingTTL = 5 * time.Minute
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// ListingCache keeps the joined all-pets listing in Redis. Reads and writes
// are best-effort; a cache problem never fails a request.
type ListingCache struct {
	rdb *redis.Client
}

func NewListingCache(rdb *redis.Client) *ListingCache {
	return &ListingCache{rdb: rdb}
}

// GetListing returns the cached listing, or false on a miss.
func (c *ListingCache) GetListing(ctx context.Context) ([]models.PetWithOwner, bool) {
	raw, err := c.rdb.Get(ctx, listingKey).Bytes()
	if err != nil {
		return nil, false
	}
	var pets []models.PetWithOwner
	if err := json.Unmarshal(raw, &pets); err != nil {
		return nil, false
	}
	return pets, true
}

func (c *ListingCache) SetListing(ctx context.Context, pets []models.PetWithOwner) {
	raw, err := json.Marshal(pets)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, listingKey, raw, listingTTL).Err(); err != nil {
		slog.Warn("listing cache set failed", "error", err)
	}
}

// Invalidate drops the cached listing after any pet or owner mutation.
func (c *ListingCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, listingKey).Err(); err != nil {
		slog.Warn("listing cache invalidation failed", "error", err)
	}
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// CatalogCache is a raw-JSON read-through cache for catalog listings.
// Entries are invalidated when a purchase changes the availability they show.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(cfg Config) (*CatalogCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	return &CatalogCache{client: rdb, ttl: cfg.TTL}, nil
}

func listingKey(eventID int64, includeAnalytics bool) string {
	return fmt.Sprintf("catalog:event:%d:analytics:%t", eventID, includeAnalytics)
}

// GetListingRaw returns the cached listing JSON as-is, avoiding an
// unmarshal/marshal round trip on the hot path.
func (c *CatalogCache) GetListingRaw(ctx context.Context, eventID int64, includeAnalytics bool) ([]byte, error) {
	data, err := c.client.Get(ctx, listingKey(eventID, includeAnalytics)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("listing not in cache")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

func (c *CatalogCache) SetListing(ctx context.Context, eventID int64, includeAnalytics bool, listing any) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}
	return c.client.Set(ctx, listingKey(eventID, includeAnalytics), data, c.ttl).Err()
}

// InvalidateEvent drops both listing variants for an event after a purchase
// changes its availability.
func (c *CatalogCache) InvalidateEvent(ctx context.Context, eventID int64) error {
	return c.client.Del(ctx,
		listingKey(eventID, false),
		listingKey(eventID, true),
	).Err()
}

func (c *CatalogCache) Close() error {
	return c.client.Close()
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shareloop/shareloop-backend/internal/models"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetSearchResults caches item search results for a query. Bookings are never
// cached; only the item directory's search output is.
func SetSearchResults(ctx context.Context, query string, items []models.Item) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("items:search:%s", strings.ToLower(query))
	return RedisClient.Set(ctx, key, data, 5*time.Minute).Err()
}

// GetSearchResults retrieves cached item search results for a query
func GetSearchResults(ctx context.Context, query string) ([]models.Item, error) {
	if RedisClient == nil {
		return nil, redis.Nil
	}

	key := fmt.Sprintf("items:search:%s", strings.ToLower(query))
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var items []models.Item
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}

	return items, nil
}

// PublishBookingUpdate publishes a booking lifecycle event to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"bookingId": bookingID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", jsonData).Err()
}

package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window request budget.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter enforces a fixed-window limit per client using Redis counters.
// Sensitive routes get their own scope so wallet mutations can run on a
// tighter budget than reads. Without Redis, or when Redis errors, requests
// pass (fail-open).
func RateLimiter(cache *redis.Client, limit RateLimit, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || limit.Requests <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("rl:%s:%s", scope, clientIdentifier(c))
		count, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			cache.Expire(c.UserContext(), key, limit.Window)
		}
		if count > int64(limit.Requests) {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(limit.Window.Seconds())))
			return fiber.NewError(http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded: %d requests per %s", limit.Requests, limit.Window))
		}
		return c.Next()
	}
}

// clientIdentifier keys the counter by IP plus a short API-key prefix, so a
// shared NAT does not starve distinct callers.
func clientIdentifier(c *fiber.Ctx) string {
	apiKey := c.Get(apiKeyHeader)
	if apiKey == "" {
		apiKey = "anonymous"
	} else if len(apiKey) > 8 {
		apiKey = apiKey[:8]
	}
	return c.IP() + "_" + apiKey
}

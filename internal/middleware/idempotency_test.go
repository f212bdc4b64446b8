package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/paisa-pay/paisa_pay/internal/logging"
)

func newIdempotentApp(t *testing.T) (*fiber.App, *atomic.Int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var hits atomic.Int64
	app := fiber.New()
	app.Post("/mutate", Idempotency(cache, time.Minute, logging.Discard()), func(c *fiber.Ctx) error {
		n := hits.Add(1)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"hit": n})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &hits, cleanup
}

func TestIdempotencyReplaysResponse(t *testing.T) {
	app, hits, cleanup := newIdempotentApp(t)
	defer cleanup()

	first := httptest.NewRequest(fiber.MethodPost, "/mutate", strings.NewReader("{}"))
	first.Header.Set(idempotencyKeyHeader, "abc123")
	resp1, err := app.Test(first)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()

	second := httptest.NewRequest(fiber.MethodPost, "/mutate", strings.NewReader("{}"))
	second.Header.Set(idempotencyKeyHeader, "abc123")
	resp2, err := app.Test(second)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if hits.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", hits.Load())
	}
	if string(body1) != string(body2) {
		t.Fatalf("replayed body differs: %s vs %s", body1, body2)
	}
	if resp2.StatusCode != resp1.StatusCode {
		t.Fatalf("replayed status differs: %d vs %d", resp2.StatusCode, resp1.StatusCode)
	}
}

func TestIdempotencyHeaderIsOptional(t *testing.T) {
	app, hits, cleanup := newIdempotentApp(t)
	defer cleanup()

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/mutate", strings.NewReader("{}")))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2", hits.Load())
	}
}

func TestIdempotencyDistinctKeysDoNotCollide(t *testing.T) {
	app, hits, cleanup := newIdempotentApp(t)
	defer cleanup()

	for _, key := range []string{"k1", "k2"} {
		req := httptest.NewRequest(fiber.MethodPost, "/mutate", strings.NewReader("{}"))
		req.Header.Set(idempotencyKeyHeader, key)
		if _, err := app.Test(req); err != nil {
			t.Fatalf("request %s: %v", key, err)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2", hits.Load())
	}
}

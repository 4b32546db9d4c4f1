package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("Failed to start miniredis: %v", err)
				return false
			}
			defer mr.Close()

			redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer redisClient.Close()

			config := RateLimitConfig{
				RequestsPerWindow: requestsPerWindow,
				Window:            1 * time.Second,
				KeyPrefix:         "test_rate_limit",
			}
			handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))

			clientIP := "192.168.1.100:51234"
			successCount := 0
			blockedCount := 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest("GET", "/api/products", nil)
				req.RemoteAddr = clientIP
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			if successCount != requestsPerWindow {
				t.Logf("FAIL: %d requests passed, want %d", successCount, requestsPerWindow)
				return false
			}
			if blockedCount != excessRequests {
				t.Logf("FAIL: %d requests blocked, want %d", blockedCount, excessRequests)
				return false
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_SeparateClients(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	config := RateLimitConfig{RequestsPerWindow: 1, Window: time.Second, KeyPrefix: "test_rate_limit"}
	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for _, addr := range []string{"10.0.0.1:1111", "10.0.0.2:2222"} {
		req := httptest.NewRequest("GET", "/api/products", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("first request from %s blocked with %d", addr, w.Code)
		}
	}
}

// A Redis outage must not take the API down with it.
func TestRateLimit_FailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()
	mr.Close()

	config := RateLimitConfig{RequestsPerWindow: 1, Window: time.Second, KeyPrefix: "test_rate_limit"}
	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.RemoteAddr = "10.0.0.3:3333"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("request blocked with %d while Redis is down", w.Code)
	}
}

// Package middleware holds the fiber middleware shared by all routes.
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"qlweb/internal/config"
	"qlweb/internal/infra/logging"
)

// APIKeyLocal is the ctx.Locals key holding the validated API key.
const APIKeyLocal = "api_key"

// ErrInvalidAPIKey is returned for keys that are not configured.
var ErrInvalidAPIKey = errors.New("invalid API key")

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    status,
			"message": msg,
		},
	})
}

// Register attaches global middleware to the app. ready backs the
// readiness probe; nil means always ready.
func Register(app *fiber.App, ready func() bool) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logging.Error("Recovered from panic", "path", c.Path(), "panic", e)
		},
	}))
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	hc := healthcheck.Config{}
	if ready != nil {
		hc.ReadinessProbe = func(*fiber.Ctx) bool { return ready() }
	}
	app.Use(healthcheck.New(hc))

	app.Use(func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		logging.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", requestID)
		return c.Next()
	})
}

// APIKey requires a configured X-API-Key header. With no tokens configured
// every request passes.
func APIKey(tokens []string) fiber.Handler {
	if len(tokens) == 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:X-API-Key",
		ContextKey: APIKeyLocal,
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			for _, t := range tokens {
				if subtle.ConstantTimeCompare([]byte(t), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, ErrInvalidAPIKey
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// keyauth may call ErrorHandler with a nil error.
			if err == nil {
				err = fiber.ErrUnauthorized
			}
			logging.Warn("API key rejected", "path", c.Path(), "error", err)
			return jsonError(c, fiber.StatusUnauthorized, err.Error())
		},
	})
}

func clientKey(c *fiber.Ctx) string {
	if token, ok := c.Locals(APIKeyLocal).(string); ok && token != "" {
		return "token:" + token
	}
	sum := sha256.Sum256([]byte(c.IP() + c.Get(fiber.HeaderUserAgent)))
	return "user:" + hex.EncodeToString(sum[:])
}

// PrintLimiter caps print requests per API key, or per client IP and user
// agent for anonymous callers, using a sliding window. A non-positive
// limit disables it.
func PrintLimiter(cfg config.RateLimitConfig, store fiber.Storage) fiber.Handler {
	if cfg.PrintLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:               cfg.PrintLimit,
		Expiration:        cfg.Interval(),
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator:      clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			logging.Warn("Rate limit exceeded", "client", clientKey(c), "path", c.Path())
			return jsonError(c, fiber.StatusTooManyRequests, "Too Many Requests")
		},
	})
}

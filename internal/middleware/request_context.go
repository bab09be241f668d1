package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hayoungplace/pkg/requestctx"
)

const RequestIDHeader = "X-Request-ID"

// NewRequestContextMiddleware assigns every request an id, taken from the
// X-Request-ID header when the caller sent one, and stores it in the user
// context and the response headers.
func NewRequestContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := strings.TrimSpace(c.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		userCtx := c.UserContext()
		if userCtx == nil {
			userCtx = context.Background()
		}
		c.SetUserContext(requestctx.WithRequestID(userCtx, requestID))
		c.Set(RequestIDHeader, requestID)

		return c.Next()
	}
}

// NewAccessLogMiddleware logs one line per request after the handler chain,
// including the status written by the error handler.
func NewAccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("requestId", requestctx.RequestID(c.UserContext())),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			zap.L().Error("Request failed", fields...)
		case status >= fiber.StatusBadRequest:
			zap.L().Info("Request rejected", fields...)
		default:
			zap.L().Debug("Request served", fields...)
		}
		return nil
	}
}

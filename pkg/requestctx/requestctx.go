package requestctx

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey int

const (
	fiberKey contextKey = iota
	requestIDKey
)

// WithFiber exposes the fiber context to handlers that need the raw request,
// such as multipart uploads.
func WithFiber(ctx context.Context, c *fiber.Ctx) context.Context {
	return context.WithValue(ctx, fiberKey, c)
}

func Fiber(ctx context.Context) (*fiber.Ctx, bool) {
	c, ok := ctx.Value(fiberKey).(*fiber.Ctx)
	return c, ok && c != nil
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id assigned by the request id middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayoungplace/pkg/requestctx"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(NewRequestContextMiddleware(), NewAccessLogMiddleware())
	app.Get("/id", func(c *fiber.Ctx) error {
		return c.SendString(requestctx.RequestID(c.UserContext()))
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	return app
}

func TestRequestContext_GeneratesID(t *testing.T) {
	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/id", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	id := resp.Header.Get(RequestIDHeader)
	assert.Len(t, id, 36)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, id, string(body))
}

func TestRequestContext_KeepsCallerID(t *testing.T) {
	req := httptest.NewRequest("GET", "/id", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := newTestApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestAccessLog_WritesHandlerErrors(t *testing.T) {
	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}

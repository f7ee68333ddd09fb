package middleware_test

import (
	"net/http/httptest"
	"testing"

	"omi-sync/core/middleware/auth"
	"omi-sync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(apiKey string) *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Use(auth.New(auth.Config{ApiKey: apiKey, Skip: []string{"/health"}}))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/private", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(rayid.LocalsKey).(string))
	})
	return app
}

func TestAuth(t *testing.T) {
	app := newApp("secret")

	tests := []struct {
		name   string
		path   string
		key    string
		status int
	}{
		{"Missing Key", "/private", "", fiber.StatusUnauthorized},
		{"Wrong Key", "/private", "nope", fiber.StatusUnauthorized},
		{"Valid Key", "/private", "secret", fiber.StatusOK},
		{"Skipped Path", "/health", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.key != "" {
				req.Header.Set(auth.HeaderName, tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	resp, err := newApp("").Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRayID(t *testing.T) {
	app := newApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(rayid.HeaderName)
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set(rayid.HeaderName, incoming)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, resp.Header.Get(rayid.HeaderName))

	req = httptest.NewRequest("GET", "/private", nil)
	req.Header.Set(rayid.HeaderName, "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(rayid.HeaderName))
}

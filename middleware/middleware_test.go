package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmenu/constants"
	"smartmenu/helper"
	"smartmenu/model"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/staff/:rid", Protected(), SameRestaurant("rid"), func(c *fiber.Ctx) error {
		claim, _ := helper.GetClaim(c)
		return c.JSON(claim)
	})
	app.Post("/menu", CSRF(), func(c *fiber.Ctx) error {
		sid, _ := c.Locals("sessionId").(string)
		return c.SendString(sid)
	})
	app.Get("/menu", CSRF(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func status(t *testing.T, app *fiber.App, method, path string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestProtected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newApp()
	tok, err := helper.GenerateAccessToken(model.TokenClaim{UserId: 3, Email: "chef@example.com", RestaurantId: 7}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 401, status(t, app, "GET", "/staff/7", nil))
	assert.Equal(t, 401, status(t, app, "GET", "/staff/7", map[string]string{"Authorization": "Bearer nope"}))
	assert.Equal(t, 200, status(t, app, "GET", "/staff/7", map[string]string{"Authorization": "Bearer " + tok}))
	assert.Equal(t, 403, status(t, app, "GET", "/staff/8", map[string]string{"Authorization": "Bearer " + tok}))

	_, csrf, err := helper.IssueCSRFToken()
	require.NoError(t, err)
	assert.Equal(t, 401, status(t, app, "GET", "/staff/7", map[string]string{"Authorization": "Bearer " + csrf}))
}

func TestProtectedReadsCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newApp()
	tok, err := helper.GenerateAccessToken(model.TokenClaim{UserId: 3}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 200, status(t, app, "GET", "/staff/9", map[string]string{"Cookie": "access_token=" + tok}))
}

func TestCSRF(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newApp()
	_, tok, err := helper.IssueCSRFToken()
	require.NoError(t, err)

	assert.Equal(t, 204, status(t, app, "GET", "/menu", nil))
	assert.Equal(t, 403, status(t, app, "POST", "/menu", nil))
	assert.Equal(t, 403, status(t, app, "POST", "/menu", map[string]string{constants.CSRFHeader: "forged"}))
	assert.Equal(t, 403, status(t, app, "POST", "/menu", map[string]string{"Cookie": constants.CSRFCookie + "=" + tok}))
	assert.Equal(t, 200, status(t, app, "POST", "/menu", map[string]string{constants.CSRFHeader: tok}))
	assert.Equal(t, 200, status(t, app, "POST", "/menu", map[string]string{"Authorization": "Bearer staff"}))
}

package validate

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmenu/model"
)

func post(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestNestedOrdritem(t *testing.T) {
	app := fiber.New()
	var got model.CreateOrdritemInput
	app.Post("/items", Nested[model.CreateOrdritemInput]("ordritem"), func(c *fiber.Ctx) error {
		got = *Input[model.CreateOrdritemInput](c)
		return c.SendStatus(fiber.StatusCreated)
	})

	code := post(t, app, "/items", `{"ordritem":{"ordr_id":42,"menuitem_id":9,"status":0,"ordritemprice":"5.50"}}`)
	require.Equal(t, 201, code)
	assert.Equal(t, uint(42), got.OrdrId)
	assert.Equal(t, model.PriceString(5.5), got.Ordritemprice)

	assert.Equal(t, 201, post(t, app, "/items", `{"ordr_id":42,"menuitem_id":9,"status":20,"ordritemprice":4}`))
	assert.Equal(t, 400, post(t, app, "/items", `{"ordritem":{"ordr_id":0,"menuitem_id":9}}`))
	assert.Equal(t, 400, post(t, app, "/items", `{"ordritem":{"ordr_id":1,"menuitem_id":9,"status":30}}`))
	assert.Equal(t, 400, post(t, app, "/items", `not json`))
}

func TestBodyPresence(t *testing.T) {
	app := fiber.New()
	app.Post("/presence", Body[model.PresenceInput](), func(c *fiber.Ctx) error {
		return c.SendString(Input[model.PresenceInput](c).Resource)
	})

	assert.Equal(t, 200, post(t, app, "/presence", `{"resource":"bar","resource_id":7,"event":"appear"}`))
	assert.Equal(t, 400, post(t, app, "/presence", `{"resource":"bar","resource_id":7,"event":"wave"}`))
	assert.Equal(t, 400, post(t, app, "/presence", `{"resource":"garage","resource_id":7,"event":"away"}`))
}

func TestGetById(t *testing.T) {
	app := fiber.New()
	app.Get("/x/:id", GetById("id"), func(c *fiber.Ctx) error {
		assert.Equal(t, uint(5), c.Locals("inputId"))
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/x/5", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	resp, err = app.Test(httptest.NewRequest("GET", "/x/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

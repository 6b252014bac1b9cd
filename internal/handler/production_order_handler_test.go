package handler_test

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engtrack/internal/models"
)

func TestCreateProductionOrder(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.login("ana")

	resp := c.postMultipart("/orders/new", map[string]string{
		"name":                   "Conveyor batch",
		"order_ref":              "OP-77",
		"expected_delivery_date": "2024-07-15",
		"requester":              "Plant 2",
	},
		upload{field: "image", filename: "photo.png", content: []byte("\x89PNG\r\n\x1a\n")},
		upload{field: "file", filename: "macro.xlsm", content: []byte("nope")},
	)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/orders", resp.Header.Get(fiber.HeaderLocation))

	body := readBody(t, c.get("/orders"))
	require.Contains(t, body, "Production order created successfully!")
	require.Contains(t, body, "macro.xlsm")
	require.Contains(t, body, "Conveyor batch")

	var order models.ProductionOrder
	require.NoError(t, app.db.Order("id desc").First(&order).Error)
	require.NotNil(t, order.ImageAttachment)
	require.Nil(t, order.FileAttachment)
	require.Equal(t, "Ana Lima", order.CreatedBy)

	detail := c.get(fmt.Sprintf("/orders/%d", order.ID))
	require.Equal(t, fiber.StatusOK, detail.StatusCode)
	require.Contains(t, readBody(t, detail), "15/07/2024")
}

func TestCreateProductionOrderValidation(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.login("bruno")

	resp := c.postForm("/orders/new", url.Values{"name": {""}, "production_end_date": {"15/07/2024"}})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Please check the following fields")

	require.Equal(t, fiber.StatusNotFound, c.get("/orders/42").StatusCode)
}

package router

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"smartmenu/handler"
	"smartmenu/middleware"
	"smartmenu/model"
	"smartmenu/validate"
)

func SetupRoutes(app *fiber.App) {
	// Customer-facing routes are cookie driven and need the CSRF token.
	restaurants := app.Group("/restaurants/:rid", logger.New(), middleware.CSRF())
	restaurants.Post("/ordrs", validate.Nested[model.CreateOrdrInput]("ordr"), handler.CreateOrdr)
	restaurants.Patch("/ordrs/:id", validate.Nested[model.UpdateOrdrInput]("ordr"), handler.UpdateOrdr)
	restaurants.Post("/ordrs/:id/request_bill", handler.RequestBill)
	restaurants.Post("/ordrs/:id/payments/checkout_session", validate.Body[model.CheckoutSessionInput](), handler.CreateCheckoutSession)
	restaurants.Post("/ordritems", validate.Nested[model.CreateOrdritemInput]("ordritem"), handler.CreateOrdritem)
	restaurants.Patch("/ordritems/:id", validate.Nested[model.UpdateOrdritemInput]("ordritem"), handler.UpdateOrdritem)

	// Staff dashboards.
	staff := restaurants.Group("", middleware.Protected(), middleware.SameRestaurant("rid"))
	staff.Get("/ordrs/:id", handler.GetOrdr)
	staff.Get("/kitchen/orders", handler.GetKitchenOrders)
	staff.Get("/kitchen/metrics", handler.GetKitchenMetrics)
	staff.Patch("/kitchen/orders/:id/status", validate.Body[model.UpdateKitchenStatusInput](), handler.UpdateKitchenOrderStatus)
	staff.Post("/kitchen/orders/:id/assign", validate.Body[model.AssignStaffInput](), handler.AssignStaff)
	staff.Post("/kitchen/inventory_alerts", validate.Body[model.InventoryAlertInput](), handler.CreateInventoryAlert)
	staff.Get("/stations/:station/tickets", handler.GetStationTickets)
	staff.Get("/station_tickets/:id", handler.GetStationTicket)
	staff.Patch("/station_tickets/:id/status", validate.Body[model.UpdateTicketStatusInput](), handler.UpdateStationTicketStatus)

	smartmenus := app.Group("/smartmenus", logger.New(), middleware.CSRF())
	smartmenus.Get("/:slug/qr.png", handler.GetSmartmenuQR)
	smartmenus.Get("/:slug/menuitems", handler.GetSmartmenuMenuitems)
	smartmenus.Post("/:slug/voice_commands", validate.Body[model.CreateVoiceCommandInput](), handler.CreateVoiceCommand)
	smartmenus.Get("/:slug/voice_commands/:id", handler.GetVoiceCommand)
	smartmenus.Get("/:slug", handler.GetSmartmenuState)

	payments := app.Group("/payments", logger.New())
	payments.Post("/payment_attempts", middleware.CSRF(), validate.Body[model.CreatePaymentAttemptInput](), handler.CreatePaymentAttempt)
	payments.Get("/return", handler.PaymentReturn)

	presence := app.Group("/presence", logger.New(), middleware.Protected())
	presence.Post("/", validate.Body[model.PresenceInput](), handler.TrackPresence)
	presence.Get("/:resource/:id", handler.GetPresence)

	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/kitchen/:rid", middleware.Protected(), middleware.SameRestaurant("rid"), websocket.New(handler.KitchenSocket))
	ws.Get("/station/:station/:rid", middleware.Protected(), middleware.SameRestaurant("rid"), websocket.New(handler.StationSocket))
	// Customers follow their own order without a staff token.
	ws.Get("/ordr/:id", websocket.New(handler.OrderSocket))
	ws.Get("/presence/:resource/:id", middleware.Protected(), websocket.New(handler.PresenceSocket))
}

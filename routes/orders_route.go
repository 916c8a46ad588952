package routes

import (
	"github.com/gofiber/fiber/v2"

	orderController "storefront-api/controllers/orders"
	"storefront-api/middlewares"
)

func OrderRoutes(app *fiber.App, ctrl *orderController.OrderController, jwtSecret string) {
	auth := middlewares.AuthRequired(jwtSecret)
	admin := middlewares.AdminRequired()

	app.Post("/order/place", auth, ctrl.PlaceOrder)
	app.Post("/order/gateway", auth, ctrl.GatewayPayment)
	app.Post("/order/verify", auth, ctrl.VerifyPayment)
	app.Post("/order/userorders", auth, ctrl.UserOrders)

	app.Post("/order/list", auth, admin, ctrl.ListOrders)
	app.Post("/order/status", auth, admin, ctrl.UpdateStatus)
	app.Post("/order/payment-status", auth, admin, ctrl.UpdatePayment)
	app.Delete("/order/:orderId", auth, admin, ctrl.DeleteOrder)
}

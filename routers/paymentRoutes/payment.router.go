package paymentRoutes

import (
	paymentController "learnly/controllers/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up the gateway-facing webhook endpoint. No JWT:
// the gateway authenticates via the HMAC signature on the event body.
func SetupPaymentRoutes(app *fiber.App) {
	app.Post("/payment", paymentController.PaymentWebhook)
}

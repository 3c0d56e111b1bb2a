package enrollmentRoutes

import (
	enrollmentController "learnly/controllers/enrollment"
	paymentController "learnly/controllers/payment"
	"learnly/middleware"
	enrollmentValidator "learnly/validators/enrollment"
	paymentValidator "learnly/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupEnrollmentRoutes sets up owner-scoped enrollment routes
func SetupEnrollmentRoutes(app *fiber.App) {
	enrollGroup := app.Group("/enrollments")

	enrollGroup.Get("/", middleware.JWTMiddleware, enrollmentValidator.GetUserEnrollments(), enrollmentController.GetEnrollments)
	enrollGroup.Delete("/:id", middleware.JWTMiddleware, enrollmentValidator.EnrollmentID(), enrollmentController.CancelEnrollment)
	enrollGroup.Post("/:id/verify-transaction", middleware.JWTMiddleware, paymentValidator.VerifyTransaction(), paymentController.VerifyTransaction)

	app.Get("/payment-status/:orderId", middleware.JWTMiddleware, enrollmentValidator.PaymentStatusPoll(), enrollmentController.GetPaymentStatus)
}

package adminRoutes

import (
	adminController "learnly/controllers/admin"
	"learnly/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up admin-only maintenance routes
func SetupAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin")

	adminGroup.Post("/reconcile-students", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), adminController.ReconcileStudentCounts)
}

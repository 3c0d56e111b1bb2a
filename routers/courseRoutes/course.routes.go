package courseRoutes

import (
	courseController "learnly/controllers/course"
	enrollmentController "learnly/controllers/enrollment"
	"learnly/middleware"
	courseValidator "learnly/validators/course"
	enrollmentValidator "learnly/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, enrollmentValidator.EnrollCourse(), enrollmentController.EnrollInCourse)

	// Content viewing (behind the dual-source access gate)
	courseGroup.Get("/:id/content", middleware.JWTMiddleware, courseValidator.CourseContent(), middleware.CourseAccessGate, courseController.GetCourseContent)

	// Content completion / progress
	courseGroup.Post("/:course_id/content/:content_id/complete", middleware.JWTMiddleware, courseValidator.MarkContentComplete(), middleware.CourseAccessGate, courseController.MarkContentComplete)
}

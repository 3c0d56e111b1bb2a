package middleware

import (
	"learnly/database"
	"learnly/models"

	"github.com/gofiber/fiber/v2"
)

// CourseAccessGate guards protected course content. Access requires BOTH an
// active, paid-or-free enrollment row AND an active entry in the user's
// denormalized enrolled-courses list. The two reads are deliberately kept
// separate: a bad write to one store must not silently grant access.
//
// The gate re-derives the decision on every request and never caches it.
// Expects "userId" (JWT middleware) and "courseID" (validator) in Locals.
func CourseAccessGate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID, ok := c.Locals("courseID").(int)
	if !ok {
		return JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
	}

	db := database.Database.Db

	var enrollment models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, uint(courseID)).First(&enrollment).Error; err != nil {
		return JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}
	if !enrollment.HasAccess() {
		return JsonResponse(c, fiber.StatusForbidden, false, "Course access requires a completed payment!", nil)
	}

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	if !user.HasActiveCourse(uint(courseID)) {
		return JsonResponse(c, fiber.StatusForbidden, false, "Course access could not be confirmed!", nil)
	}

	c.Locals("enrollment", &enrollment)
	return c.Next()
}

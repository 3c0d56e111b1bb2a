package courseValidator

import (
	"strconv"
	"strings"

	"learnly/middleware"

	"github.com/gofiber/fiber/v2"
)

func parseCourseID(c *fiber.Ctx, param string) (int, error) {
	idStr := strings.TrimSpace(c.Params(param))
	if idStr == "" {
		return 0, fiber.ErrBadRequest
	}
	courseID, err := strconv.Atoi(idStr)
	if err != nil || courseID <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return courseID, nil
}

// CourseContent validates the :id path param for content routes
func CourseContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := parseCourseID(c, "id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", courseID)
		return c.Next()
	}
}

// MarkContentComplete validates :course_id and :content_id path params
func MarkContentComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := parseCourseID(c, "course_id")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		contentIDStr := strings.TrimSpace(c.Params("content_id"))
		contentID, err := strconv.Atoi(contentIDStr)
		if err != nil || contentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Content ID!", nil)
		}

		c.Locals("courseID", courseID)
		c.Locals("contentID", contentID)
		return c.Next()
	}
}

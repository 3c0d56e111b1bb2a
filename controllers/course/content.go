package courseController

import (
	"learnly/database"
	"learnly/middleware"
	"learnly/models"

	"github.com/gofiber/fiber/v2"
)

// GetCourseContent lists a course's published content for an enrolled user.
// Runs behind the access gate, which already resolved the enrollment.
func GetCourseContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("courseID").(int)
	enrollment := c.Locals("enrollment").(*models.Enrollment)

	var contents []models.CourseContent
	if err := database.Database.Db.
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("order_index asc").Find(&contents).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch content!", nil)
	}

	type ContentWithStatus struct {
		models.CourseContent
		IsCompleted bool `json:"is_completed"`
	}

	result := make([]ContentWithStatus, len(contents))
	for i, content := range contents {
		result[i] = ContentWithStatus{CourseContent: content}

		var completion models.ContentCompletion
		if err := database.Database.Db.Where("user_id = ? AND content_id = ? AND is_deleted = ?", userID, content.ID, false).First(&completion).Error; err == nil {
			result[i].IsCompleted = true
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", fiber.Map{
		"contents":   result,
		"enrollment": enrollment,
	})
}

// MarkContentComplete records one finished content item and refreshes the
// enrollment's progress. Progress accumulates regardless of payment state
// changes later on.
func MarkContentComplete(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("courseID").(int)
	contentID := c.Locals("contentID").(int)
	enrollment := c.Locals("enrollment").(*models.Enrollment)

	var content models.CourseContent
	if err := database.Database.Db.Where("id = ? AND course_id = ? AND is_deleted = ?", contentID, courseID, false).First(&content).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
	}

	// Repeat completion is a no-op
	var existing models.ContentCompletion
	if err := database.Database.Db.Where("user_id = ? AND content_id = ? AND is_deleted = ?", userID, content.ID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Content already completed!", fiber.Map{
			"progress": enrollment.Progress,
		})
	}

	completion := models.ContentCompletion{
		UserID:    userID,
		ContentID: content.ID,
		CourseID:  uint(courseID),
	}

	var totalContents int64
	database.Database.Db.Model(&models.CourseContent{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&totalContents)

	tx := database.Database.Db.Begin()
	if err := tx.Create(&completion).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark content complete!", nil)
	}

	enrollment.CompletedContents++
	enrollment.TotalContents = int(totalContents)
	if totalContents > 0 {
		enrollment.Progress = float64(enrollment.CompletedContents) / float64(totalContents) * 100
	}
	if err := tx.Save(enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content marked complete!", fiber.Map{
		"progress":           enrollment.Progress,
		"completed_contents": enrollment.CompletedContents,
		"total_contents":     enrollment.TotalContents,
	})
}

package adminController

import (
	"learnly/middleware"
	"learnly/utils"

	"github.com/gofiber/fiber/v2"
)

// ReconcileStudentCounts lets an admin trigger the counter reconciliation
// outside the cron schedule, typically after a support incident.
func ReconcileStudentCounts(c *fiber.Ctx) error {
	result := utils.ReconcileStudentCounts()

	message := "Student counts reconciled!"
	if result.DuplicatePairs > 0 {
		message = "Student counts reconciled. Duplicate enrollments detected, check server logs!"
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

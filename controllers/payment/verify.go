package paymentController

import (
	"log"
	"time"

	"learnly/database"
	"learnly/middleware"
	"learnly/models"
	"learnly/utils"
	paymentValidator "learnly/validators/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// matchTransactionID compares the user-submitted identifiers against every
// stored gateway identifier. Payment apps disagree about which id the user
// sees, so a match on any field counts. Returns the stored field that
// matched, or "".
func matchTransactionID(enrollment *models.Enrollment, submitted *paymentValidator.VerifyTransactionRequest) string {
	candidates := []string{submitted.TransactionID, submitted.UPITransactionID}
	for _, id := range candidates {
		if id == "" {
			continue
		}
		if enrollment.TransactionID != "" && id == enrollment.TransactionID {
			return "transactionId"
		}
		if enrollment.UPITransactionID != "" && id == enrollment.UPITransactionID {
			return "upiTransactionId"
		}
	}
	return ""
}

// VerifyTransaction is the fallback for users who paid but don't want to
// wait out webhook latency. It can only confirm against identifiers the
// gateway already stored; it never mints a completed payment on the user's
// word alone.
func VerifyTransaction(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)
	reqData := c.Locals("validatedVerifyRequest").(*paymentValidator.VerifyTransactionRequest)

	var enrollment models.Enrollment
	if err := database.Database.Db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this enrollment!", nil)
	}

	// Already settled: idempotent success
	if enrollment.PaymentStatus == models.PaymentStatusCompleted || enrollment.PaymentStatus == models.PaymentStatusFree {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment already verified!", fiber.Map{
			"enrollmentId":  enrollment.ID,
			"paymentStatus": enrollment.PaymentStatus,
			"status":        enrollment.Status,
		})
	}

	// Webhook hasn't stored anything yet. Distinct from a mismatch: the
	// client should retry shortly, not treat this as a failed verification.
	if !enrollment.HasStoredTransaction() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "No transaction recorded yet. Please try again shortly.", nil)
	}

	matchedField := matchTransactionID(&enrollment, reqData)
	if matchedField == "" {
		log.Printf("[VERIFY] Transaction mismatch for enrollment %d (submitted=%q)", enrollment.ID, reqData.TransactionID)
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Transaction ID does not match our records!", nil)
	}

	wasCompleted := enrollment.PaymentStatus == models.PaymentStatusCompleted

	now := time.Now()
	enrollment.PaymentStatus = models.PaymentStatusCompleted
	enrollment.Status = models.EnrollmentStatusActive
	if enrollment.PaymentDate == nil {
		enrollment.PaymentDate = &now
	}
	enrollment.MergePaymentDetails(map[string]interface{}{
		"manual_matched_field": matchedField,
		"manual_verified_at":   now.Format(time.RFC3339),
	})

	tx := database.Database.Db.Begin()
	if err := tx.Save(&enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify transaction!", nil)
	}

	if !wasCompleted {
		if err := tx.Model(&models.Course{}).Where("id = ?", enrollment.CourseID).
			Update("students", gorm.Expr("students + 1")).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify transaction!", nil)
		}

		var user models.User
		if err := tx.Where("id = ?", enrollment.UserID).First(&user).Error; err == nil {
			if user.AppendEnrolledCourse(enrollment.CourseID) {
				if err := tx.Save(&user).Error; err != nil {
					tx.Rollback()
					return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify transaction!", nil)
				}
			}
		}
	}
	tx.Commit()

	go utils.AwardEnrollmentPoints(enrollment.UserID, enrollment.CourseID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction verified successfully!", fiber.Map{
		"enrollmentId":  enrollment.ID,
		"paymentStatus": enrollment.PaymentStatus,
		"status":        enrollment.Status,
		"matchedField":  matchedField,
	})
}

package enrollmentController

import (
	"strings"

	"learnly/database"
	"learnly/middleware"
	"learnly/models"
	"learnly/utils"
	enrollmentValidator "learnly/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// isUniqueViolation detects a duplicate-key error from Postgres or SQLite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// EnrollInCourse creates the enrollment record for the authenticated user.
// Free courses activate immediately; paid courses stay pending until the
// payment gateway confirms.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)
	details := c.Locals("validatedEnrollDetails").(*enrollmentValidator.EnrollRequest)

	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	// Fast-path duplicate check; the unique index is the real guarantee
	var existingEnrollment models.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existingEnrollment).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}

	enrollment := models.Enrollment{
		UserID:   userID,
		CourseID: uint(courseID),
		FullName: details.FullName,
		Email:    details.Email,
		Phone:    details.Phone,
	}

	if course.RequiresPayment() {
		enrollment.PaymentStatus = models.PaymentStatusPending
		enrollment.Status = models.EnrollmentStatusPending
		enrollment.AmountPaid = course.Price

		if err := database.Database.Db.Create(&enrollment).Error; err != nil {
			if isUniqueViolation(err) {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment created. Complete the payment to unlock the course.", fiber.Map{
			"enrollment":      enrollment,
			"requiresPayment": true,
			"amountDue":       course.Price,
		})
	}

	// Free course: activate synchronously
	enrollment.PaymentStatus = models.PaymentStatusFree
	enrollment.Status = models.EnrollmentStatusActive
	enrollment.AmountPaid = 0

	tx := database.Database.Db.Begin()
	if err := tx.Create(&enrollment).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	if err := tx.Model(&models.Course{}).Where("id = ?", course.ID).
		Update("students", gorm.Expr("students + 1")).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	if user.AppendEnrolledCourse(course.ID) {
		if err := tx.Save(&user).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
		}
	}
	tx.Commit()

	go utils.AwardEnrollmentPoints(userID, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", fiber.Map{
		"enrollment":      enrollment,
		"requiresPayment": false,
	})
}

// CancelEnrollment lets a user abandon checkout. Only enrollments still
// awaiting payment can be cancelled; settled ones are rejected.
func CancelEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)

	var enrollment models.Enrollment
	if err := database.Database.Db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this enrollment!", nil)
	}

	if enrollment.PaymentStatus != models.PaymentStatusPending {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only pending enrollments can be cancelled!", nil)
	}

	tx := database.Database.Db.Begin()
	// Hard delete so the unique (user, course) slot frees up for re-enrollment
	if err := tx.Unscoped().Delete(&enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel enrollment!", nil)
	}
	if err := tx.Model(&models.Course{}).
		Where("id = ? AND students > 0", enrollment.CourseID).
		Update("students", gorm.Expr("students - 1")).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel enrollment!", nil)
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment cancelled!", nil)
}

// GetPaymentStatus is the owner-only payment polling endpoint
func GetPaymentStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	orderID := c.Locals("orderID").(int)

	var enrollment models.Enrollment
	if err := database.Database.Db.Where("id = ?", orderID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this enrollment!", nil)
	}

	message := "Payment status fetched!"
	if enrollment.PaymentStatus == models.PaymentStatusPending {
		message = "Payment not yet confirmed, please wait."
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"enrollmentId":   enrollment.ID,
		"paymentStatus":  enrollment.PaymentStatus,
		"status":         enrollment.Status,
		"transactionId":  enrollment.TransactionID,
		"paymentDetails": enrollment.PaymentDetails,
	})
}

// GetEnrollments lists the authenticated user's enrollments
func GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedEnrollmentList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})
	if !ok {
		// Fetch all enrollments without pagination
		var enrollments []models.Enrollment
		if err := database.Database.Db.Where("user_id = ?", userID).Find(&enrollments).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
			"enrollments": enrollments,
			"pagination": fiber.Map{
				"total": int64(len(enrollments)),
				"page":  1,
				"limit": len(enrollments),
			},
		})
	}

	page := *reqData.Page
	limit := *reqData.Limit
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.Enrollment{}).Where("user_id = ?", userID)

	var total int64
	db.Count(&total)

	var enrollments []models.Enrollment
	if err := db.Offset(offset).Limit(limit).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

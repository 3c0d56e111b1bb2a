package paymentController

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"learnly/config"
	"learnly/database"
	"learnly/middleware"
	"learnly/models"
	"learnly/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// amountTolerance absorbs float rounding between the gateway and the catalog
const amountTolerance = 0.01

// WebhookEvent is the payload pushed by the payment gateway
type WebhookEvent struct {
	TransactionID string  `json:"transactionId"`
	OrderID       string  `json:"orderId"` // enrollment identifier
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"` // SUCCESS, FAILED, PENDING
	Timestamp     string  `json:"timestamp"`
	Signature     string  `json:"signature"`

	// Optional gateway-specific fields; apps populate different subsets
	PaymentMethod       string `json:"paymentMethod"`
	CustomerPhone       string `json:"customerPhone"`
	CustomerEmail       string `json:"customerEmail"`
	UPITransactionID    string `json:"upiTransactionId"`
	PaymentApp          string `json:"paymentApp"`
	BankReferenceNumber string `json:"bankReferenceNumber"`
	VPA                 string `json:"vpa"`
	PayerVPA            string `json:"payerVPA"`
	PayeeVPA            string `json:"payeeVPA"`
}

// recordPaymentEvent appends an audit row for an inbound event. Audit
// failures are logged, never surfaced: the gateway response must reflect the
// settlement outcome, not the audit write.
func recordPaymentEvent(ev *WebhookEvent, orderID uint, outcome string, rawBody []byte) {
	event := models.PaymentEvent{
		ID:            uuid.NewString(),
		TransactionID: ev.TransactionID,
		OrderID:       orderID,
		EventStatus:   ev.Status,
		Outcome:       outcome,
		Payload:       datatypes.JSON(rawBody),
		ReceivedAt:    time.Now(),
	}
	if err := database.Database.Db.Create(&event).Error; err != nil {
		log.Printf("[WEBHOOK] Failed to record payment event for order %d: %v", orderID, err)
	}
}

// gatewayDetails collects the event's optional metadata for the bag
func gatewayDetails(ev *WebhookEvent) map[string]interface{} {
	return map[string]interface{}{
		"payment_app":           ev.PaymentApp,
		"upi_transaction_id":    ev.UPITransactionID,
		"bank_reference_number": ev.BankReferenceNumber,
		"vpa":                   ev.VPA,
		"payer_vpa":             ev.PayerVPA,
		"payee_vpa":             ev.PayeeVPA,
		"customer_phone":        ev.CustomerPhone,
		"customer_email":        ev.CustomerEmail,
	}
}

// PaymentWebhook processes an inbound gateway event against an enrollment.
// The gateway retries delivery on non-2xx responses, so every non-2xx here
// must be safe to receive again, and a duplicate of an applied SUCCESS must
// return 200 without reapplying side effects.
func PaymentWebhook(c *fiber.Ctx) error {
	ev := new(WebhookEvent)
	if err := c.BodyParser(ev); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook payload!", nil)
	}
	rawBody := make([]byte, len(c.Body()))
	copy(rawBody, c.Body())

	// Field validation
	if ev.TransactionID == "" || ev.OrderID == "" || ev.Amount <= 0 || ev.Status == "" {
		log.Printf("[WEBHOOK] Rejected event with missing fields (txn=%q order=%q)", ev.TransactionID, ev.OrderID)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing required webhook fields!", nil)
	}

	// Signature verification
	if config.AppConfig.SkipWebhookSignature && config.AppConfig.Env != "production" {
		log.Printf("[WEBHOOK] Signature verification SKIPPED for order %s (env=%s, local testing exception)", ev.OrderID, config.AppConfig.Env)
	} else {
		payload := utils.WebhookSignaturePayload(ev.TransactionID, ev.OrderID, ev.Amount, ev.Status, ev.Timestamp)
		if !utils.VerifyWebhookSignature(config.AppConfig.PaymentWebhookSecret, payload, ev.Signature) {
			log.Printf("[WEBHOOK] Signature mismatch for order %s (payload=%q)", ev.OrderID, payload)
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid webhook signature!", nil)
		}

		if ts, ok := utils.ParseWebhookTimestamp(ev.Timestamp); ok {
			maxSkew := time.Duration(config.AppConfig.WebhookMaxSkewMin) * time.Minute
			if !utils.WithinSkew(ts, maxSkew) {
				log.Printf("[WEBHOOK] Timestamp outside skew window for order %s (ts=%s)", ev.OrderID, ev.Timestamp)
				return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Webhook timestamp outside accepted window!", nil)
			}
		} else if ev.Timestamp != "" {
			log.Printf("[WEBHOOK] Unparseable timestamp %q for order %s, skew window not enforced", ev.Timestamp, ev.OrderID)
		}
	}

	// Lookup
	orderID, err := strconv.Atoi(ev.OrderID)
	if err != nil || orderID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Unknown order!", nil)
	}

	var enrollment models.Enrollment
	if err := database.Database.Db.Where("id = ?", orderID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Unknown order!", nil)
	}

	echo := fiber.Map{
		"enrollmentId":  enrollment.ID,
		"transactionId": ev.TransactionID,
	}

	// Idempotency: a retried event for a settled payment is a no-op success
	if enrollment.PaymentStatus == models.PaymentStatusCompleted {
		recordPaymentEvent(ev, enrollment.ID, models.PaymentEventDuplicate, rawBody)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment already processed!", echo)
	}

	var course models.Course
	if err := database.Database.Db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found for this order!", nil)
	}

	// Amount reconciliation against the catalog price
	if math.Abs(ev.Amount-course.Price) > amountTolerance {
		log.Printf("[WEBHOOK] Amount mismatch for order %d: expected %.2f, received %.2f", enrollment.ID, course.Price, ev.Amount)

		enrollment.PaymentStatus = models.PaymentStatusFailed
		enrollment.TransactionID = ev.TransactionID
		enrollment.MergePaymentDetails(map[string]interface{}{
			"failure_reason":  "amount_mismatch",
			"expected_amount": course.Price,
			"received_amount": ev.Amount,
		})
		if err := database.Database.Db.Save(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
		}

		recordPaymentEvent(ev, enrollment.ID, models.PaymentEventAmountMismatch, rawBody)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment amount mismatch!", echo)
	}

	switch strings.ToUpper(ev.Status) {
	case "SUCCESS", "COMPLETED":
		return applyPaymentSuccess(c, ev, &enrollment, &course, rawBody, echo)

	case "FAILED":
		enrollment.PaymentStatus = models.PaymentStatusFailed
		enrollment.TransactionID = ev.TransactionID
		enrollment.UPITransactionID = ev.UPITransactionID
		enrollment.PaymentMethod = ev.PaymentMethod
		enrollment.MergePaymentDetails(gatewayDetails(ev))
		enrollment.MergePaymentDetails(map[string]interface{}{"failure_reason": "gateway_reported_failure"})
		if err := database.Database.Db.Save(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
		}

		recordPaymentEvent(ev, enrollment.ID, models.PaymentEventProcessed, rawBody)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment failure recorded!", echo)

	case "PENDING":
		enrollment.PaymentStatus = models.PaymentStatusPending
		enrollment.TransactionID = ev.TransactionID
		enrollment.UPITransactionID = ev.UPITransactionID
		enrollment.PaymentMethod = ev.PaymentMethod
		enrollment.MergePaymentDetails(gatewayDetails(ev))
		if err := database.Database.Db.Save(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
		}

		recordPaymentEvent(ev, enrollment.ID, models.PaymentEventProcessed, rawBody)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment pending recorded!", echo)

	default:
		recordPaymentEvent(ev, enrollment.ID, models.PaymentEventRejected, rawBody)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown payment status!", echo)
	}
}

// applyPaymentSuccess settles the enrollment and applies access side effects.
// The counter increment and list append are gated on the pre-update payment
// status read in this same invocation, so a racing duplicate cannot apply
// them twice.
func applyPaymentSuccess(c *fiber.Ctx, ev *WebhookEvent, enrollment *models.Enrollment, course *models.Course, rawBody []byte, echo fiber.Map) error {
	wasCompleted := enrollment.PaymentStatus == models.PaymentStatusCompleted

	now := time.Now()
	enrollment.PaymentStatus = models.PaymentStatusCompleted
	enrollment.Status = models.EnrollmentStatusActive
	enrollment.TransactionID = ev.TransactionID
	enrollment.UPITransactionID = ev.UPITransactionID
	enrollment.PaymentMethod = ev.PaymentMethod
	enrollment.PaymentDate = &now
	enrollment.MergePaymentDetails(gatewayDetails(ev))
	enrollment.MergePaymentDetails(map[string]interface{}{
		"webhook_verified_at": now.Format(time.RFC3339),
	})

	tx := database.Database.Db.Begin()
	if err := tx.Save(enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
	}

	if !wasCompleted {
		if err := tx.Model(&models.Course{}).Where("id = ?", course.ID).
			Update("students", gorm.Expr("students + 1")).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
		}

		var user models.User
		if err := tx.Where("id = ?", enrollment.UserID).First(&user).Error; err == nil {
			if user.AppendEnrolledCourse(course.ID) {
				if err := tx.Save(&user).Error; err != nil {
					tx.Rollback()
					return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
				}
			}
		}
	}
	tx.Commit()

	recordPaymentEvent(ev, enrollment.ID, models.PaymentEventProcessed, rawBody)

	// Side effects after the state write: a slow downstream must not block
	// or roll back the settlement
	go utils.SendPaymentConfirmationEmail(enrollment.Email, enrollment.FullName, course.Title, enrollment.AmountPaid)
	go utils.AwardEnrollmentPoints(enrollment.UserID, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment processed successfully!", echo)
}

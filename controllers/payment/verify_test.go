package paymentController

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"learnly/database"
	"learnly/middleware"
	"learnly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyPath(enrollmentID uint) string {
	return "/enrollments/" + strconv.Itoa(int(enrollmentID)) + "/verify-transaction"
}

func verifyBody(t *testing.T, txnID, upiTxnID string) []byte {
	t.Helper()
	body := map[string]string{"transactionId": txnID}
	if upiTxnID != "" {
		body["upiTransactionId"] = upiTxnID
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func userToken(t *testing.T, user models.User) string {
	t.Helper()
	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return token
}

func TestVerifyRejectsWhenNoStoredTransaction(t *testing.T) {
	app := setupPaymentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499)
	enrollment := seedPendingEnrollment(t, user, course)

	resp, parsed := postJSON(t, app, verifyPath(enrollment.ID), verifyBody(t, "PAY123", ""), userToken(t, user))

	// "Try again shortly", not a mismatch failure
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, parsed.Message, "No transaction recorded yet")

	updated := reloadEnrollment(t, enrollment.ID)
	assert.Equal(t, models.PaymentStatusPending, updated.PaymentStatus)
	assert.NotEqual(t, models.EnrollmentStatusActive, updated.Status)
}

func TestVerifyMismatchDeniesAccess(t *testing.T) {
	app := setupPaymentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499)
	enrollment := seedPendingEnrollment(t, user, course)

	require.NoError(t, database.Database.Db.Model(&enrollment).Update("transaction_id", "PAY123").Error)

	resp, _ := postJSON(t, app, verifyPath(enrollment.ID), verifyBody(t, "WRONG999", ""), userToken(t, user))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.PaymentStatusPending, reloadEnrollment(t, enrollment.ID).PaymentStatus)
}

func TestVerifyMatchOnPrimaryTransactionID(t *testing.T) {
	app := setupPaymentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499)
	enrollment := seedPendingEnrollment(t, user, course)

	require.NoError(t, database.Database.Db.Model(&enrollment).Update("transaction_id", "PAY123").Error)

	resp, parsed := postJSON(t, app, verifyPath(enrollment.ID), verifyBody(t, "PAY123", ""), userToken(t, user))

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		MatchedField string `json:"matchedField"`
	}
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	assert.Equal(t, "transactionId", data.MatchedField)

	updated := reloadEnrollment(t, enrollment.ID)
	assert.Equal(t, models.PaymentStatusCompleted, updated.PaymentStatus)
	assert.Equal(t, models.EnrollmentStatusActive, updated.Status)
	assert.Equal(t, "transactionId", updated.PaymentDetails["manual_matched_field"])

	// The manual path applies the same access side effects as the webhook
	assert.Equal(t, int64(1), reloadCourse(t, course.ID).Students)
	var refreshed models.User
	require.NoError(t, database.Database.Db.First(&refreshed, user.ID).Error)
	assert.True(t, refreshed.HasActiveCourse(course.ID))
}

func TestVerifyMatchOnUPIFieldInEitherSlot(t *testing.T) {
	app := setupPaymentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499)
	enrollment := seedPendingEnrollment(t, user, course)

	require.NoError(t, database.Database.Db.Model(&enrollment).Update("upi_transaction_id", "UPI456").Error)

	// The user pastes the UPI reference into the primary slot
	resp, parsed := postJSON(t, app, verifyPath(enrollment.ID), verifyBody(t, "UPI456", ""), userToken(t, user))

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		MatchedField string `json:"matchedField"`
	}
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	assert.Equal(t, "upiTransactionId", data.MatchedField)
	assert.Equal(t, models.PaymentStatusCompleted, reloadEnrollment(t, enrollment.ID).PaymentStatus)
}

func TestVerifyAlreadyCompletedIsIdempotent(t *testing.T) {
	app := setupPaymentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499)
	enrollment := seedPendingEnrollment(t, user, course)

	require.NoError(t, database.Database.Db.Model(&enrollment).Updates(map[string]interface{}{
		"payment_status": models.PaymentStatusCompleted,
		"status":         models.EnrollmentStatusActive,
		"transaction_id": "PAY123",
	}).Error)

	resp, parsed := postJSON(t, app, verifyPath(enrollment.ID), verifyBody(t, "anything-at-all", ""), userToken(t, user))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, parsed.Message, "already verified")
	// No second counter increment
	assert.Equal(t, int64(0), reloadCourse(t, course.ID).Students)
}

func TestVerifyOwnershipEnforced(t *testing.T) {
	app := setupPaymentTest(t)
	owner := seedUser(t, "asha@example.com")
	intruder := seedUser(t, "ravi@example.com")
	course := seedCourse(t, 499)
	enrollment := seedPendingEnrollment(t, owner, course)

	require.NoError(t, database.Database.Db.Model(&enrollment).Update("transaction_id", "PAY123").Error)

	resp, _ := postJSON(t, app, verifyPath(enrollment.ID), verifyBody(t, "PAY123", ""), userToken(t, intruder))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.PaymentStatusPending, reloadEnrollment(t, enrollment.ID).PaymentStatus)
}

func TestVerifyUnknownEnrollment(t *testing.T) {
	app := setupPaymentTest(t)
	user := seedUser(t, "asha@example.com")

	resp, _ := postJSON(t, app, verifyPath(9999), verifyBody(t, "PAY123", ""), userToken(t, user))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package enrollmentController

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"learnly/config"
	"learnly/database"
	"learnly/middleware"
	"learnly/models"
	enrollmentValidator "learnly/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupEnrollmentTest(t *testing.T) *fiber.App {
	t.Helper()

	config.LoadConfig()
	config.AppConfig.Env = "test"
	config.AppConfig.GamificationApiUrl = ""

	database.ConnectTestDb()

	app := fiber.New()
	app.Post("/course/:id/enroll", middleware.JWTMiddleware, enrollmentValidator.EnrollCourse(), EnrollInCourse)
	app.Delete("/enrollments/:id", middleware.JWTMiddleware, enrollmentValidator.EnrollmentID(), CancelEnrollment)
	app.Get("/enrollments", middleware.JWTMiddleware, enrollmentValidator.GetUserEnrollments(), GetEnrollments)
	app.Get("/payment-status/:orderId", middleware.JWTMiddleware, enrollmentValidator.PaymentStatusPoll(), GetPaymentStatus)
	return app
}

func seedUser(t *testing.T, email string) models.User {
	t.Helper()
	user := models.User{Name: "Asha Verma", Email: email}
	require.NoError(t, database.Database.Db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, price float64, published bool) models.Course {
	t.Helper()
	course := models.Course{
		Title:       "Go Backend Bootcamp",
		Price:       price,
		IsFree:      price == 0,
		IsPublished: published,
		Status:      "ACTIVE",
	}
	require.NoError(t, database.Database.Db.Create(&course).Error)
	return course
}

func userToken(t *testing.T, user models.User) string {
	t.Helper()
	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body []byte, token string) (*http.Response, apiResponse) {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func enrollBody(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]string{
		"fullName": "Asha Verma",
		"email":    "asha@example.com",
		"phone":    "9876543210",
	})
	require.NoError(t, err)
	return raw
}

func enrollPath(courseID uint) string {
	return "/course/" + strconv.Itoa(int(courseID)) + "/enroll"
}

type enrollResponseData struct {
	Enrollment      models.Enrollment `json:"enrollment"`
	RequiresPayment bool              `json:"requiresPayment"`
}

func TestEnrollFreeCourseActivatesImmediately(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 0, true)

	resp, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data enrollResponseData
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	assert.False(t, data.RequiresPayment)
	assert.Equal(t, models.EnrollmentStatusActive, data.Enrollment.Status)
	assert.Equal(t, models.PaymentStatusFree, data.Enrollment.PaymentStatus)
	assert.Zero(t, data.Enrollment.AmountPaid)

	var refreshedCourse models.Course
	require.NoError(t, database.Database.Db.First(&refreshedCourse, course.ID).Error)
	assert.Equal(t, int64(1), refreshedCourse.Students)

	var refreshedUser models.User
	require.NoError(t, database.Database.Db.First(&refreshedUser, user.ID).Error)
	assert.True(t, refreshedUser.HasActiveCourse(course.ID))
}

func TestEnrollPaidCourseStaysPending(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499, true)

	resp, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data enrollResponseData
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	assert.True(t, data.RequiresPayment)
	assert.Equal(t, models.EnrollmentStatusPending, data.Enrollment.Status)
	assert.Equal(t, models.PaymentStatusPending, data.Enrollment.PaymentStatus)
	assert.Equal(t, float64(499), data.Enrollment.AmountPaid)

	// No counter increment and no access before settlement
	var refreshedCourse models.Course
	require.NoError(t, database.Database.Db.First(&refreshedCourse, course.ID).Error)
	assert.Equal(t, int64(0), refreshedCourse.Students)

	var refreshedUser models.User
	require.NoError(t, database.Database.Db.First(&refreshedUser, user.ID).Error)
	assert.False(t, refreshedUser.HasActiveCourse(course.ID))
}

func TestEnrollDuplicateConflicts(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499, true)

	resp, _ := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, parsed.Status)

	var count int64
	database.Database.Db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollUnknownCourse(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")

	resp, _ := doRequest(t, app, http.MethodPost, enrollPath(9999), enrollBody(t), userToken(t, user))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEnrollRequiresContactDetails(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499, true)

	raw, err := json.Marshal(map[string]string{"phone": "9876543210"})
	require.NoError(t, err)

	resp, _ := doRequest(t, app, http.MethodPost, enrollPath(course.ID), raw, userToken(t, user))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCancelPendingEnrollment(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 499, true)

	_, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	var data enrollResponseData
	require.NoError(t, json.Unmarshal(parsed.Data, &data))

	resp, _ := doRequest(t, app, http.MethodDelete, "/enrollments/"+strconv.Itoa(int(data.Enrollment.ID)), nil, userToken(t, user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	database.Database.Db.Unscoped().Model(&models.Enrollment{}).Where("id = ?", data.Enrollment.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// The slot is free again
	resp, _ = doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelSettledEnrollmentRejected(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")
	course := seedCourse(t, 0, true)

	_, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
	var data enrollResponseData
	require.NoError(t, json.Unmarshal(parsed.Data, &data))

	// Free enrollments settle immediately, so cancellation must fail
	resp, _ := doRequest(t, app, http.MethodDelete, "/enrollments/"+strconv.Itoa(int(data.Enrollment.ID)), nil, userToken(t, user))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int64
	database.Database.Db.Model(&models.Enrollment{}).Where("id = ?", data.Enrollment.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCancelOwnershipEnforced(t *testing.T) {
	app := setupEnrollmentTest(t)
	owner := seedUser(t, "asha@example.com")
	intruder := seedUser(t, "ravi@example.com")
	course := seedCourse(t, 499, true)

	_, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, owner))
	var data enrollResponseData
	require.NoError(t, json.Unmarshal(parsed.Data, &data))

	resp, _ := doRequest(t, app, http.MethodDelete, "/enrollments/"+strconv.Itoa(int(data.Enrollment.ID)), nil, userToken(t, intruder))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPaymentStatusPollOwnerOnly(t *testing.T) {
	app := setupEnrollmentTest(t)
	owner := seedUser(t, "asha@example.com")
	intruder := seedUser(t, "ravi@example.com")
	course := seedCourse(t, 499, true)

	_, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, owner))
	var data enrollResponseData
	require.NoError(t, json.Unmarshal(parsed.Data, &data))

	path := "/payment-status/" + strconv.Itoa(int(data.Enrollment.ID))

	resp, parsed := doRequest(t, app, http.MethodGet, path, nil, userToken(t, owner))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, parsed.Message, "please wait")

	var status struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	require.NoError(t, json.Unmarshal(parsed.Data, &status))
	assert.Equal(t, models.PaymentStatusPending, status.PaymentStatus)

	resp, _ = doRequest(t, app, http.MethodGet, path, nil, userToken(t, intruder))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListEnrollmentsPaginated(t *testing.T) {
	app := setupEnrollmentTest(t)
	user := seedUser(t, "asha@example.com")

	for i := 0; i < 3; i++ {
		course := seedCourse(t, 499, true)
		_, parsed := doRequest(t, app, http.MethodPost, enrollPath(course.ID), enrollBody(t), userToken(t, user))
		require.True(t, parsed.Status)
	}

	resp, parsed := doRequest(t, app, http.MethodGet, "/enrollments?page=1&limit=2", nil, userToken(t, user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Enrollments []models.Enrollment `json:"enrollments"`
		Pagination  struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(parsed.Data, &data))
	assert.Len(t, data.Enrollments, 2)
	assert.Equal(t, int64(3), data.Pagination.Total)
}

package utils

import (
	"log"
	"time"

	"learnly/config"

	"github.com/go-resty/resty/v2"
)

// Points awarded by the gamification service per event
const (
	PointsCourseEnrolled = 50
)

// AwardEnrollmentPoints notifies the gamification service that a user
// unlocked a course. Best effort with a hard timeout: the enrollment state
// is already saved when this runs, and a slow or failed award is only
// logged. Skipped when no service URL is configured.
func AwardEnrollmentPoints(userID, courseID uint) {
	if config.AppConfig.GamificationApiUrl == "" {
		return
	}

	client := resty.New().SetTimeout(5 * time.Second)
	resp, err := client.R().
		SetHeader("X-Api-Key", config.AppConfig.GamificationApiKey).
		SetBody(map[string]interface{}{
			"userId":   userID,
			"courseId": courseID,
			"event":    "course_enrolled",
			"points":   PointsCourseEnrolled,
		}).
		Post(config.AppConfig.GamificationApiUrl + "/points/award")
	if err != nil {
		log.Printf("[GAMIFICATION] Award failed for user %d course %d: %v", userID, courseID, err)
		return
	}
	if resp.StatusCode() >= 300 {
		log.Printf("[GAMIFICATION] Award returned %d for user %d course %d", resp.StatusCode(), userID, courseID)
	}
}

package utils

import (
	"fmt"
	"log"
	"time"

	"learnly/config"
	"learnly/database"
	"learnly/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// logReconciler logs reconciler events with timestamp
func logReconciler(message string) {
	log.Printf("[STUDENT-COUNT %s] %s", time.Now().Format(time.RFC3339), message)
}

// ReconcileResult summarizes one reconciliation pass
type ReconcileResult struct {
	CoursesChecked int   `json:"courses_checked"`
	CoursesFixed   int   `json:"courses_fixed"`
	DuplicatePairs int   `json:"duplicate_pairs"`
	Errors         int   `json:"errors"`
	DurationMs     int64 `json:"duration_ms"`
}

// ReconcileStudentCounts recomputes every course's cached Students counter
// from the enrollments table and overwrites it on drift. Each course update
// is independent, so an interrupted pass leaves no partial state and the
// next run picks up where it left off.
//
// Only settled enrollments (completed or free payment) count, matching the
// population the live activation increment counts.
func ReconcileStudentCounts() ReconcileResult {
	start := time.Now()
	db := database.Database.Db
	var result ReconcileResult

	var courses []models.Course
	if err := db.Where("is_deleted = false").Find(&courses).Error; err != nil {
		logReconciler("Error fetching courses: " + err.Error())
		result.Errors++
		return result
	}

	for _, course := range courses {
		result.CoursesChecked++

		var count int64
		if err := db.Model(&models.Enrollment{}).
			Where("course_id = ? AND payment_status IN ?", course.ID,
				[]string{models.PaymentStatusCompleted, models.PaymentStatusFree}).
			Count(&count).Error; err != nil {
			logReconciler("Error counting enrollments for course " + course.Title + ": " + err.Error())
			result.Errors++
			continue
		}

		if count != course.Students {
			logReconciler(course.Title + ": cached count drifted, repairing")
			if err := db.Model(&models.Course{}).Where("id = ?", course.ID).
				Update("students", count).Error; err != nil {
				logReconciler("Error updating count for course " + course.Title + ": " + err.Error())
				result.Errors++
				continue
			}
			result.CoursesFixed++
		}
	}

	result.DuplicatePairs = reportDuplicateEnrollments(db)
	result.DurationMs = time.Since(start).Milliseconds()

	logReconciler("Pass complete")
	return result
}

// reportDuplicateEnrollments flags (user, course) pairs with more than one
// enrollment row. The unique index should make these impossible; any hit is
// an operator-attention situation, reported but never auto-deleted.
func reportDuplicateEnrollments(db *gorm.DB) int {
	var dups []struct {
		UserID   uint
		CourseID uint
		Cnt      int64
	}
	if err := db.Model(&models.Enrollment{}).
		Select("user_id, course_id, COUNT(*) as cnt").
		Group("user_id").Group("course_id").
		Having("COUNT(*) > 1").
		Scan(&dups).Error; err != nil {
		logReconciler("Error scanning for duplicate enrollments: " + err.Error())
		return 0
	}

	for _, d := range dups {
		logReconciler(fmt.Sprintf("DUPLICATE enrollment: user %d course %d has %d rows", d.UserID, d.CourseID, d.Cnt))
	}
	return len(dups)
}

// StartStudentCountScheduler runs the reconciler on the configured cron
// schedule. Returns the cron runner so main can stop it on shutdown.
func StartStudentCountScheduler() *cron.Cron {
	c := cron.New()
	spec := config.AppConfig.ReconcilerCron
	if _, err := c.AddFunc(spec, func() {
		ReconcileStudentCounts()
	}); err != nil {
		log.Printf("[STUDENT-COUNT] Invalid cron spec %q: %v", spec, err)
		return c
	}
	c.Start()
	logReconciler("Scheduler started with spec " + spec)
	return c
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment status values for an enrollment
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusFree      = "free"
)

// Enrollment status values
const (
	EnrollmentStatusPending   = "pending"
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusCancelled = "cancelled"
	EnrollmentStatusSuspended = "suspended"
)

// Enrollment binds a user to a course, carrying both access state and
// payment state. One row per (user, course), enforced by a unique index.
type Enrollment struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"uniqueIndex:idx_enrollments_user_course;not null"`
	CourseID uint `json:"course_id" gorm:"uniqueIndex:idx_enrollments_user_course;not null"`

	// Snapshot of contact details at enrollment time, not live-synced
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	PaymentStatus string `json:"payment_status" gorm:"default:'pending'"`
	Status        string `json:"status" gorm:"default:'pending'"`

	PaymentMethod    string     `json:"payment_method"`
	TransactionID    string     `json:"transaction_id" gorm:"index"`
	UPITransactionID string     `json:"upi_transaction_id"`
	AmountPaid       float64    `json:"amount_paid" gorm:"default:0"`
	PaymentDate      *time.Time `json:"payment_date"`

	// PaymentDetails is an open-ended gateway metadata bag. Keys are only
	// ever added or overwritten with newer values, never removed.
	PaymentDetails datatypes.JSONMap `json:"payment_details"`

	Progress          float64 `json:"progress" gorm:"default:0"` // 0-100
	CompletedContents int     `json:"completed_contents" gorm:"default:0"`
	TotalContents     int     `json:"total_contents" gorm:"default:0"`
}

// HasAccess reports whether this enrollment on its own grants content access
func (e *Enrollment) HasAccess() bool {
	if e.Status != EnrollmentStatusActive {
		return false
	}
	return e.PaymentStatus == PaymentStatusCompleted || e.PaymentStatus == PaymentStatusFree
}

// HasStoredTransaction reports whether any gateway-supplied identifier has
// been recorded yet. Manual verification cannot proceed without one.
func (e *Enrollment) HasStoredTransaction() bool {
	return e.TransactionID != "" || e.UPITransactionID != ""
}

// MergePaymentDetails folds new gateway metadata into the bag, skipping
// empty values so a later sparse event cannot blank earlier fields.
func (e *Enrollment) MergePaymentDetails(details map[string]interface{}) {
	if e.PaymentDetails == nil {
		e.PaymentDetails = datatypes.JSONMap{}
	}
	for k, v := range details {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		e.PaymentDetails[k] = v
	}
}

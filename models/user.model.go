package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name            string `json:"name" gorm:"default:''"`
	Email           string `json:"email" gorm:"unique;not null"`
	Mobile          string `json:"mobile" gorm:"default:''"`
	Role            string `json:"role" gorm:"default:'USER'"` // USER, INSTRUCTOR, ADMIN
	IsEmailVerified bool   `json:"is_email_verified" gorm:"default:false"`
	// EnrolledCourses mirrors active enrollments as a denormalized list.
	// It is a second, independent source for the access gate, not a
	// replacement for the enrollments table.
	EnrolledCourses datatypes.JSON `json:"enrolled_courses"`
	IsDeleted       bool           `gorm:"default:false"`
}

// EnrolledCourse is one entry of the user's denormalized course list
type EnrolledCourse struct {
	CourseID   uint      `json:"course_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrolledCourseList decodes the denormalized list. A missing or corrupt
// column reads as empty, which the access gate treats as "no access".
func (u *User) EnrolledCourseList() []EnrolledCourse {
	if len(u.EnrolledCourses) == 0 {
		return nil
	}
	var list []EnrolledCourse
	if err := json.Unmarshal(u.EnrolledCourses, &list); err != nil {
		return nil
	}
	return list
}

// HasActiveCourse reports whether the denormalized list carries this course
// with an active status.
func (u *User) HasActiveCourse(courseID uint) bool {
	for _, ec := range u.EnrolledCourseList() {
		if ec.CourseID == courseID && ec.Status == EnrollmentStatusActive {
			return true
		}
	}
	return false
}

// AppendEnrolledCourse adds the course to the denormalized list if it is not
// already present. Returns false when the entry already existed, so callers
// can skip the save.
func (u *User) AppendEnrolledCourse(courseID uint) bool {
	list := u.EnrolledCourseList()
	for _, ec := range list {
		if ec.CourseID == courseID {
			return false
		}
	}
	list = append(list, EnrolledCourse{
		CourseID:   courseID,
		Status:     EnrollmentStatusActive,
		EnrolledAt: time.Now(),
	})
	raw, err := json.Marshal(list)
	if err != nil {
		return false
	}
	u.EnrolledCourses = datatypes.JSON(raw)
	return true
}

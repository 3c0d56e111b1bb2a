package models

import "gorm.io/gorm"

// CourseContent is one content item of a course
type CourseContent struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	ContentType string `json:"content_type" gorm:"default:'VIDEO'"` // VIDEO, ARTICLE, MCQ
	ContentURL  string `json:"content_url"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// ContentCompletion records that a user finished a content item once
type ContentCompletion struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"uniqueIndex:idx_completions_user_content;not null"`
	ContentID uint `json:"content_id" gorm:"uniqueIndex:idx_completions_user_content;not null"`
	CourseID  uint `json:"course_id" gorm:"index;not null"`
	IsDeleted bool `gorm:"default:false"`
}

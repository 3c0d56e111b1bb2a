package models

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Author      string  `json:"author"`
	Price       float64 `json:"price" gorm:"default:0"` // single currency (INR)
	IsFree      bool    `json:"is_free" gorm:"default:false"`
	// Students is a cached counter, incremented on activation. The
	// student-count reconciler recomputes it from the enrollments table.
	Students    int64  `json:"students" gorm:"default:0"`
	Status      string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// RequiresPayment reports whether enrolling in the course needs a payment
func (c *Course) RequiresPayment() bool {
	return !c.IsFree && c.Price > 0
}

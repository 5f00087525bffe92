package fees

import (
	"strings"
	"time"

	"getpay-backend/internal/domain/students"
)

type Category string

const (
	CategoryTuition   Category = "Tuition"
	CategoryHostel    Category = "Hostel"
	CategoryTransport Category = "Transport"
	CategoryOther     Category = "Other"
)

var Categories = []Category{CategoryTuition, CategoryHostel, CategoryTransport, CategoryOther}

// ParseCategory matches case-insensitively and returns the canonical form.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Payable reports whether an assignment in this status can still be settled.
func (s Status) Payable() bool {
	return s == StatusPending || s == StatusOverdue
}

type Fee struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Title    string    `gorm:"not null" json:"title"`
	Amount   int64     `gorm:"not null;check:chk_fees_amount_positive,amount > 0" json:"amount"`
	Category Category  `gorm:"type:varchar(20);not null;index" json:"category"`
	DueDate  time.Time `gorm:"not null" json:"dueDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FeeAssignment struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	StudentID uint              `gorm:"not null;index" json:"studentId"`
	Student   *students.Student `gorm:"constraint:OnDelete:CASCADE" json:"student,omitempty"`
	FeeID     uint              `gorm:"not null;index" json:"feeId"`
	Fee       *Fee              `gorm:"constraint:OnDelete:RESTRICT" json:"fee,omitempty"`
	DueDate   time.Time         `gorm:"not null;index" json:"dueDate"`
	Status    Status            `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

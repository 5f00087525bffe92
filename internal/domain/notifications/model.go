package notifications

import "time"

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;index:idx_notifications_student_read" json:"studentId"`
	Title        string    `gorm:"not null" json:"title"`
	Message      string    `gorm:"not null" json:"message"`
	Type         Type      `gorm:"type:varchar(20);not null;default:'info'" json:"type"`
	IsRead       bool      `gorm:"not null;default:false;index:idx_notifications_student_read" json:"isRead"`
	PaymentID    *uint     `json:"paymentId,omitempty"`
	AssignmentID *uint     `json:"assignmentId,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

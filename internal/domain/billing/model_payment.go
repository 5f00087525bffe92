package billing

import (
	"time"

	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/domain/students"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Label is the status word shown to clients; completed payments read "success".
func (s Status) Label() string {
	if s == StatusCompleted {
		return "success"
	}
	return string(s)
}

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
	ProviderOffline  = "offline"
)

type Payment struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	StudentID    uint                `gorm:"not null;index" json:"studentId"`
	Student      *students.Student   `json:"student,omitempty"`
	AssignmentID uint                `gorm:"not null;index" json:"assignmentId"`
	Assignment   *fees.FeeAssignment `json:"assignment,omitempty"`
	Amount       int64               `gorm:"not null" json:"amount"`
	Mode         Mode                `gorm:"type:varchar(10);not null" json:"mode"`
	Status       Status              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Provider     string              `gorm:"type:varchar(20);not null" json:"provider"`

	GatewayOrderID   *string `gorm:"index" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID *string `gorm:"uniqueIndex:idx_payments_gateway_payment_id" json:"gatewayPaymentId,omitempty"`
	GatewaySignature *string `json:"-"`

	PaidAt    *time.Time `json:"paidAt,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

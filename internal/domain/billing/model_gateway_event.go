package billing

import (
	"time"

	"gorm.io/datatypes"
)

// GatewayEvent is an audit row for every payment callback received,
// accepted or rejected. It is written outside the settlement transaction.
type GatewayEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Provider     string         `gorm:"type:varchar(20);not null;index" json:"provider"`
	Kind         string         `gorm:"type:varchar(64);not null" json:"kind"`
	OrderID      string         `gorm:"index" json:"orderId"`
	PaymentID    string         `gorm:"index" json:"paymentId"`
	AssignmentID uint           `json:"assignmentId"`
	StudentID    uint           `json:"studentId"`
	Verified     bool           `gorm:"not null;default:false" json:"verified"`
	Error        *string        `json:"error,omitempty"`
	Payload      datatypes.JSON `json:"payload"`
	CreatedAt    time.Time      `json:"createdAt"`
}

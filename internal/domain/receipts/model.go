package receipts

import (
	"time"

	"getpay-backend/internal/domain/fees"
)

type Receipt struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	StudentID   uint          `gorm:"not null;index" json:"studentId"`
	PaymentID   uint          `gorm:"not null;uniqueIndex:idx_receipts_payment_id" json:"paymentId"`
	FeeTitle    string        `gorm:"not null" json:"feeTitle"`
	FeeCategory fees.Category `gorm:"type:varchar(20)" json:"feeCategory"`
	Amount      int64         `gorm:"not null" json:"amount"`
	PaymentDate time.Time     `gorm:"not null" json:"paymentDate"`
	FilePath    string        `gorm:"not null" json:"-"`
	FileName    string        `gorm:"not null" json:"fileName"`
	DownloadURL string        `gorm:"-" json:"downloadUrl"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

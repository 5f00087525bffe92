package receipts

import (
	"errors"
	"fmt"

	"getpay-backend/internal/pkg/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileName is the artifact name for a payment's receipt.
func FileName(paymentID uint) string {
	return fmt.Sprintf("receipt_%d.pdf", paymentID)
}

// DownloadPath is the API path serving a payment's receipt.
func DownloadPath(paymentID uint) string {
	return fmt.Sprintf("/api/receipts/download/%d", paymentID)
}

// Upsert writes the receipt row keyed by payment id.
func Upsert(db *gorm.DB, r *Receipt) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_path", "file_name", "fee_title", "fee_category", "amount", "payment_date", "updated_at"}),
	}).Create(r).Error
}

func ListForStudent(db *gorm.DB, studentID uint) ([]Receipt, error) {
	var out []Receipt
	if err := db.Where("student_id = ?", studentID).Order("payment_date DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DownloadURL = DownloadPath(out[i].PaymentID)
	}
	return out, nil
}

func FindByPayment(db *gorm.DB, paymentID uint) (*Receipt, error) {
	var r Receipt
	if err := db.Where("payment_id = ?", paymentID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Receipt not found")
		}
		return nil, err
	}
	r.DownloadURL = DownloadPath(r.PaymentID)
	return &r, nil
}

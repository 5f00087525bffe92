package notifications

import (
	"fmt"

	"getpay-backend/internal/pkg/apperrors"

	"gorm.io/gorm"
)

const listLimit = 50

func Create(db *gorm.DB, n *Notification) error {
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if err := db.Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Latest returns the newest notifications of a student.
func Latest(db *gorm.DB, studentID uint) ([]Notification, error) {
	var out []Notification
	err := db.Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(listLimit).
		Find(&out).Error
	return out, err
}

// MarkRead flags one notification; it must belong to the student.
func MarkRead(db *gorm.DB, studentID, id uint) error {
	res := db.Model(&Notification{}).
		Where("id = ? AND student_id = ?", id, studentID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := db.Model(&Notification{}).Where("id = ? AND student_id = ?", id, studentID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return apperrors.NotFound("Notification not found")
		}
	}
	return nil
}

func MarkAllRead(db *gorm.DB, studentID uint) (int64, error) {
	res := db.Model(&Notification{}).
		Where("student_id = ? AND is_read = ?", studentID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func UnreadCount(db *gorm.DB, studentID uint) (int64, error) {
	var n int64
	err := db.Model(&Notification{}).
		Where("student_id = ? AND is_read = ?", studentID, false).
		Count(&n).Error
	return n, err
}

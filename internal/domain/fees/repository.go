package fees

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/apperrors"

	"gorm.io/gorm"
)

type CreateFeeInput struct {
	Title    string
	Amount   int64
	Category string
	DueDate  time.Time
}

func CreateFee(db *gorm.DB, in CreateFeeInput) (*Fee, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.Validation("Title is required")
	}
	if in.Amount <= 0 {
		return nil, apperrors.Validation("Amount must be a positive integer")
	}
	cat, ok := ParseCategory(in.Category)
	if !ok {
		return nil, apperrors.Validation("Category must be one of Tuition, Hostel, Transport, Other")
	}
	if in.DueDate.IsZero() {
		return nil, apperrors.Validation("Due date is required")
	}

	fee := Fee{Title: title, Amount: in.Amount, Category: cat, DueDate: in.DueDate}
	if err := db.Create(&fee).Error; err != nil {
		return nil, fmt.Errorf("create fee: %w", err)
	}
	return &fee, nil
}

// Assign links a fee to a student. A student may hold only one unpaid
// assignment per fee.
func Assign(db *gorm.DB, studentID, feeID uint, dueDate time.Time) (*FeeAssignment, error) {
	if _, err := students.FindByID(db, studentID); err != nil {
		return nil, err
	}

	var fee Fee
	if err := db.First(&fee, feeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Fee not found")
		}
		return nil, err
	}

	var open int64
	if err := db.Model(&FeeAssignment{}).
		Where("student_id = ? AND fee_id = ? AND status <> ?", studentID, feeID, StatusPaid).
		Count(&open).Error; err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, apperrors.Conflict("Fee is already assigned to this student")
	}

	if dueDate.IsZero() {
		dueDate = fee.DueDate
	}

	a := FeeAssignment{StudentID: studentID, FeeID: feeID, DueDate: dueDate, Status: StatusPending}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("assign fee: %w", err)
	}
	a.Fee = &fee
	return &a, nil
}

func ListFees(db *gorm.DB) ([]Fee, error) {
	var out []Fee
	err := db.Order("due_date ASC").Find(&out).Error
	return out, err
}

// StudentAssignments returns a student's assignments with their fee, soonest due first.
func StudentAssignments(db *gorm.DB, studentID uint) ([]FeeAssignment, error) {
	var out []FeeAssignment
	err := db.Preload("Fee").
		Where("student_id = ?", studentID).
		Order("due_date ASC").
		Find(&out).Error
	return out, err
}

// FindAssignment loads an assignment with its fee.
func FindAssignment(db *gorm.DB, id uint) (*FeeAssignment, error) {
	var a FeeAssignment
	if err := db.Preload("Fee").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Fee assignment not found")
		}
		return nil, err
	}
	return &a, nil
}

// MarkOverdue moves pending assignments due before now to overdue and
// returns the rows it changed.
func MarkOverdue(db *gorm.DB, now time.Time) ([]FeeAssignment, error) {
	var changed []FeeAssignment
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Fee").
			Where("status = ? AND due_date < ?", StatusPending, now).
			Find(&changed).Error; err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(changed))
		for i := range changed {
			ids = append(ids, changed[i].ID)
			changed[i].Status = StatusOverdue
		}
		return tx.Model(&FeeAssignment{}).
			Where("id IN ? AND status = ?", ids, StatusPending).
			Update("status", StatusOverdue).Error
	})
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	return changed, nil
}

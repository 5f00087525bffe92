package students

import (
	"errors"
	"fmt"
	"strings"

	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/dberrors"

	"gorm.io/gorm"
)

var ErrDuplicateStudent = apperrors.Validation("Student with this email or registration number already exists")

// Create inserts s after normalising its email. Both unique keys are checked
// up front; a unique violation from a concurrent insert maps to the same error.
func Create(db *gorm.DB, s *Student) error {
	s.Email = NormalizeEmail(s.Email)
	s.RegistrationNo = strings.TrimSpace(s.RegistrationNo)

	var count int64
	if err := db.Model(&Student{}).
		Where("email = ? OR registration_no = ?", s.Email, s.RegistrationNo).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check student uniqueness: %w", err)
	}
	if count > 0 {
		return ErrDuplicateStudent
	}

	if err := db.Create(s).Error; err != nil {
		if dberrors.IsUniqueViolation(err) {
			return ErrDuplicateStudent
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func FindByEmail(db *gorm.DB, email string) (*Student, error) {
	var s Student
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Student not found")
		}
		return nil, err
	}
	return &s, nil
}

func FindByID(db *gorm.DB, id uint) (*Student, error) {
	var s Student
	if err := db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Student not found")
		}
		return nil, err
	}
	return &s, nil
}

// ClassNames returns the distinct non-empty class labels of students.
func ClassNames(db *gorm.DB) ([]string, error) {
	var names []string
	err := db.Model(&Student{}).
		Where("role = ? AND class_name <> ''", "student").
		Distinct("class_name").
		Order("class_name ASC").
		Pluck("class_name", &names).Error
	return names, err
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

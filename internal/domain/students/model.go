package students

import (
	"time"

	"getpay-backend/internal/domain/access"

	"golang.org/x/crypto/bcrypt"
)

type Student struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Name           string      `gorm:"not null" json:"name"`
	Email          string      `gorm:"not null;uniqueIndex:idx_students_email" json:"email"`
	RegistrationNo string      `gorm:"column:registration_no;not null;uniqueIndex:idx_students_registration_no" json:"registrationNo"`
	Password       string      `gorm:"not null" json:"-"`
	Role           access.Role `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	ClassName      string      `gorm:"column:class_name;index" json:"className"`
	GoogleSub      *string     `gorm:"uniqueIndex:idx_students_google_sub" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Student) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.Password = string(hashed)
	return nil
}

func (s *Student) CheckPassword(plain string) bool {
	if s.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(plain)) == nil
}

func (s *Student) IsAdmin() bool { return s.Role == access.RoleAdmin }

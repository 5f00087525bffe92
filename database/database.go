package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"getpay-backend/internal/domain/access"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/domain/notifications"
	"getpay-backend/internal/domain/receipts"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open opens a gorm handle with driver errors translated to gorm's
// sentinel errors (gorm.ErrDuplicatedKey and friends).
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// gormWriter routes gorm's warnings and errors through the service logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

// Connect opens the Postgres database at dsn.
func Connect(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DB_URL not set")
	}
	return Open(postgres.Open(dsn))
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&students.Student{},
		&fees.Fee{},
		&fees.FeeAssignment{},
		&billing.Payment{},
		&billing.GatewayEvent{},
		&receipts.Receipt{},
		&notifications.Notification{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

const (
	adminRegistrationNo = "ADM-0001"
	adminClassName      = "Administration"
)

// EnsureAdmin creates the bootstrap administrator when email is set and no
// account with that email exists yet.
func EnsureAdmin(db *gorm.DB, email, password string) error {
	email = students.NormalizeEmail(email)
	if email == "" {
		return nil
	}
	if password == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}

	existing, err := students.FindByEmail(db, email)
	if err == nil {
		if existing.Role != access.RoleAdmin {
			logger.Warn().Str("email", email).Msg("bootstrap admin email belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	admin := students.Student{
		Name:           "Administrator",
		Email:          email,
		RegistrationNo: adminRegistrationNo,
		Role:           access.RoleAdmin,
		ClassName:      adminClassName,
	}
	if err := admin.SetPassword(password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := students.Create(db, &admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}

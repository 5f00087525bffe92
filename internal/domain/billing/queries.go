package billing

import (
	"errors"
	"strings"
	"time"

	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/pkg/apperrors"

	"gorm.io/gorm"
)

// StudentHistory lists a student's payments newest first with Assignment→Fee loaded.
func StudentHistory(db *gorm.DB, studentID uint) ([]Payment, error) {
	var out []Payment
	err := db.Preload("Assignment.Fee").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// FindPayment loads a payment with student and Assignment→Fee.
func FindPayment(db *gorm.DB, id uint) (*Payment, error) {
	var p Payment
	if err := db.Preload("Student").Preload("Assignment.Fee").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Payment not found")
		}
		return nil, err
	}
	return &p, nil
}

type PaymentFilter struct {
	Status    string
	ClassName string
	// Query matches student name, email or registration number.
	Query string
	Since *time.Time
	Limit int
}

// ListPayments is the admin view over all payments, newest first.
func ListPayments(db *gorm.DB, f PaymentFilter) ([]Payment, error) {
	q := db.Model(&Payment{}).
		Preload("Student").
		Preload("Assignment.Fee").
		Joins("JOIN students ON students.id = payments.student_id")

	if s := strings.TrimSpace(f.Status); s != "" {
		if strings.EqualFold(s, "success") {
			s = string(StatusCompleted)
		}
		q = q.Where("payments.status = ?", strings.ToLower(s))
	}
	if c := strings.TrimSpace(f.ClassName); c != "" {
		q = q.Where("students.class_name = ?", c)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(students.name) LIKE ? OR LOWER(students.email) LIKE ? OR LOWER(students.registration_no) LIKE ?", like, like, like)
	}
	if f.Since != nil {
		q = q.Where("payments.created_at > ?", *f.Since)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []Payment
	err := q.Order("payments.created_at DESC, payments.id DESC").Find(&out).Error
	return out, err
}

type CategoryTotal struct {
	Category fees.Category `json:"category"`
	Total    int64         `json:"total"`
	Count    int64         `json:"count"`
}

type DailyTotal struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalCollected   int64           `json:"totalCollected"`
	CompletedCount   int64           `json:"completedCount"`
	PendingCount     int64           `json:"pendingCount"`
	PendingAmount    int64           `json:"pendingAmount"`
	OverdueCount     int64           `json:"overdueCount"`
	Defaulters       int64           `json:"defaulters"`
	ByCategory       []CategoryTotal `json:"byCategory"`
	DailyCollections []DailyTotal    `json:"dailyCollections"`
}

// ComputeStats aggregates collections. The daily series covers the 30 days
// ending at now, zero-filled, and is bucketed in Go to stay dialect neutral.
func ComputeStats(db *gorm.DB, now time.Time) (*Stats, error) {
	var st Stats

	if err := db.Model(&Payment{}).
		Where("status = ?", StatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.TotalCollected).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Payment{}).Where("status = ?", StatusCompleted).Count(&st.CompletedCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&fees.FeeAssignment{}).Where("status = ?", fees.StatusPending).Count(&st.PendingCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&fees.FeeAssignment{}).Where("status = ?", fees.StatusOverdue).Count(&st.OverdueCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&fees.FeeAssignment{}).
		Joins("JOIN fees ON fees.id = fee_assignments.fee_id").
		Where("fee_assignments.status IN ?", []fees.Status{fees.StatusPending, fees.StatusOverdue}).
		Select("COALESCE(SUM(fees.amount), 0)").
		Scan(&st.PendingAmount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&fees.FeeAssignment{}).
		Where("status IN ? AND due_date < ?", []fees.Status{fees.StatusPending, fees.StatusOverdue}, now).
		Count(&st.Defaulters).Error; err != nil {
		return nil, err
	}

	st.ByCategory = []CategoryTotal{}
	if err := db.Model(&Payment{}).
		Joins("JOIN fee_assignments ON fee_assignments.id = payments.assignment_id").
		Joins("JOIN fees ON fees.id = fee_assignments.fee_id").
		Where("payments.status = ?", StatusCompleted).
		Select("fees.category AS category, COALESCE(SUM(payments.amount), 0) AS total, COUNT(*) AS count").
		Group("fees.category").
		Order("fees.category").
		Scan(&st.ByCategory).Error; err != nil {
		return nil, err
	}

	daily, err := dailyCollections(db, now, 30)
	if err != nil {
		return nil, err
	}
	st.DailyCollections = daily
	return &st, nil
}

func dailyCollections(db *gorm.DB, now time.Time, days int) ([]DailyTotal, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	var rows []struct {
		Amount int64
		PaidAt *time.Time
	}
	if err := db.Model(&Payment{}).
		Select("amount, paid_at").
		Where("status = ? AND paid_at >= ? AND paid_at < ?", StatusCompleted, start, end).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]DailyTotal, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DailyTotal{Date: d}
		index[d] = i
	}
	for _, r := range rows {
		if r.PaidAt == nil {
			continue
		}
		if i, ok := index[r.PaidAt.In(now.Location()).Format("2006-01-02")]; ok {
			out[i].Total += r.Amount
			out[i].Count++
		}
	}
	return out, nil
}

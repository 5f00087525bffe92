package jobs

import (
	"context"
	"fmt"
	"time"

	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/domain/notifications"
	"getpay-backend/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// OverdueJob moves pending assignments past their due date to overdue and
// warns the affected students.
type OverdueJob struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOverdueJob(db *gorm.DB) *OverdueJob {
	return &OverdueJob{db: db, now: time.Now}
}

// Run performs one sweep and returns how many assignments changed.
func (j *OverdueJob) Run(ctx context.Context) (int, error) {
	db := j.db.WithContext(ctx)

	changed, err := fees.MarkOverdue(db, j.now())
	if err != nil {
		return 0, err
	}

	for _, a := range changed {
		assignmentID := a.ID
		title := "your fee"
		if a.Fee != nil {
			title = a.Fee.Title
		}
		n := notifications.Notification{
			StudentID:    a.StudentID,
			Title:        "Fee Overdue",
			Message:      fmt.Sprintf("Payment for %s was due on %s and is now overdue.", title, a.DueDate.Format("02 Jan 2006")),
			Type:         notifications.TypeWarning,
			AssignmentID: &assignmentID,
		}
		if err := notifications.Create(db, &n); err != nil {
			logger.Warn().Err(err).Uint("assignment_id", a.ID).Msg("overdue notification not created")
		}
	}
	return len(changed), nil
}

// Schedule registers the sweep on a new cron scheduler; the caller starts
// and stops it.
func Schedule(spec string, job *OverdueJob) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()

		n, err := job.Run(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("overdue sweep failed")
			return
		}
		if n > 0 {
			logger.Info().Int("count", n).Msg("assignments marked overdue")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule overdue sweep %q: %w", spec, err)
	}
	return c, nil
}

package billing

import (
	"context"
	"encoding/json"

	"getpay-backend/internal/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordEvent stores an audit row for a gateway callback. Failures are
// logged only; the audit trail never blocks a settlement decision.
func RecordEvent(ctx context.Context, db *gorm.DB, ev GatewayEvent, payload any) {
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = datatypes.JSON(raw)
		}
	}
	if err := db.WithContext(ctx).Create(&ev).Error; err != nil {
		logger.Warn().Err(err).
			Str("provider", ev.Provider).
			Str("kind", ev.Kind).
			Str("payment_id", ev.PaymentID).
			Msg("failed to record gateway event")
	}
}

// EventError is a helper for GatewayEvent.Error.
func EventError(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

package stripe

import (
	"strings"

	"getpay-backend/internal/domain/billing"

	stripeapi "github.com/stripe/stripe-go/v75"
)

// NormalizeIntentStatus maps a PaymentIntent status onto the payment ledger's statuses.
func NormalizeIntentStatus(s stripeapi.PaymentIntentStatus) billing.Status {
	switch strings.TrimSpace(string(s)) {
	case string(stripeapi.PaymentIntentStatusSucceeded):
		return billing.StatusCompleted
	case string(stripeapi.PaymentIntentStatusCanceled):
		return billing.StatusFailed
	default:
		return billing.StatusPending
	}
}

package stripewebhooks

import (
	"errors"
	"net/http"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/infra/stripe"
	"getpay-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	stripeapi "github.com/stripe/stripe-go/v75"
)

// handleIntentFailed only audits the failure; the assignment stays payable.
func (h *Handler) handleIntentFailed(c *gin.Context, eventID string, pi *stripeapi.PaymentIntent) {
	assignmentID, studentID, _ := stripe.IntentRefs(pi)

	reason := "payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}

	billing.RecordEvent(c.Request.Context(), h.DB, billing.GatewayEvent{
		Provider:     billing.ProviderStripe,
		Kind:         "payment_intent.payment_failed",
		OrderID:      pi.ID,
		PaymentID:    pi.ID,
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Verified:     true,
		Error:        billing.EventError(errors.New(reason)),
	}, gin.H{"event_id": eventID, "status": pi.Status, "metadata": pi.Metadata})

	logger.Info().Str("intent", pi.ID).Uint("assignment_id", assignmentID).Str("reason", reason).Msg("stripe payment failed")
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

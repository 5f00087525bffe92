package stripewebhooks

import (
	"net/http"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/infra/stripe"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	stripeapi "github.com/stripe/stripe-go/v75"
)

// handleIntentSucceeded settles the assignment named in the intent metadata.
// Rejections are acknowledged with 200 so Stripe stops retrying; storage
// failures return 500 so it retries.
func (h *Handler) handleIntentSucceeded(c *gin.Context, eventID string, pi *stripeapi.PaymentIntent) {
	ctx := c.Request.Context()
	ev := billing.GatewayEvent{
		Provider:  billing.ProviderStripe,
		Kind:      "payment_intent.succeeded",
		OrderID:   pi.ID,
		PaymentID: pi.ID,
		Verified:  true,
	}
	payload := gin.H{"event_id": eventID, "status": pi.Status, "amount_received": pi.AmountReceived, "metadata": pi.Metadata}

	assignmentID, studentID, err := stripe.IntentRefs(pi)
	if err != nil {
		ev.Error = billing.EventError(err)
		billing.RecordEvent(ctx, h.DB, ev, payload)
		logger.Warn().Err(err).Str("intent", pi.ID).Msg("stripe intent without settlement metadata")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	ev.AssignmentID = assignmentID
	ev.StudentID = studentID

	if stripe.NormalizeIntentStatus(pi.Status) != billing.StatusCompleted {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	received := pi.AmountReceived
	if received == 0 {
		received = pi.Amount
	}

	res, err := h.Settler.Settle(ctx, billing.SettleInput{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Amount:       received / 100,
		Mode:         billing.ModeOnline,
		Provider:     billing.ProviderStripe,
		OrderID:      pi.ID,
		PaymentID:    pi.ID,
	})
	ev.Error = billing.EventError(err)
	billing.RecordEvent(ctx, h.DB, ev, payload)

	if err != nil {
		if apperrors.Status(err) >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("intent", pi.ID).Msg("stripe settlement failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement failed"})
			return
		}
		logger.Warn().Err(err).Str("intent", pi.ID).Uint("assignment_id", assignmentID).Msg("stripe settlement rejected")
		c.JSON(http.StatusOK, gin.H{"status": "rejected", "error": apperrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "paymentId": res.Payment.ID, "replayed": res.Replayed})
}

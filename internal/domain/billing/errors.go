package billing

import "getpay-backend/internal/pkg/apperrors"

var (
	ErrVerificationFailed = apperrors.Validation("Payment verification failed")
	ErrInvalidCallback    = apperrors.Validation("orderId, paymentId, signature and assignmentId are required")
	ErrAssignmentNotFound = apperrors.NotFound("Fee assignment not found")
	ErrAmountMismatch     = apperrors.Validation("Paid amount does not match the amount owed")
	ErrAlreadySettled     = apperrors.Conflict("Fee assignment is already paid")
)

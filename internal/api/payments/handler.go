package paymentsapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"getpay-backend/internal/api/httputil"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB       *gorm.DB
	Settler  *billing.Settler
	Gateway  billing.Gateway
	Currency string
}

// POST /api/payments/create-order
func (h *Handler) CreateOrder(c *gin.Context) {
	var input struct {
		Amount       int64           `json:"amount" binding:"required,gt=0"`
		AssignmentID httputil.FlexID `json:"assignmentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "Amount and assignmentId required")
		return
	}

	ctx := c.Request.Context()
	studentID := middleware.UserID(c)

	a, err := fees.FindAssignment(h.DB.WithContext(ctx), uint(input.AssignmentID))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if a.StudentID != studentID {
		httputil.Fail(c, billing.ErrAssignmentNotFound)
		return
	}
	if !a.Status.Payable() {
		httputil.Fail(c, billing.ErrAlreadySettled)
		return
	}
	if a.Fee == nil || a.Fee.Amount != input.Amount {
		httputil.Fail(c, billing.ErrAmountMismatch)
		return
	}

	req := billing.OrderRequest{
		AssignmentID: a.ID,
		StudentID:    studentID,
		Amount:       a.Fee.Amount,
		Currency:     h.Currency,
		Receipt:      billing.ReceiptRef(a.ID),
		Description:  a.Fee.Title,
	}
	if acct := middleware.Account(c); acct != nil {
		req.Email = acct.Email
	}

	order, err := h.Gateway.CreateOrder(ctx, req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	resp := gin.H{
		"orderId":      order.OrderID,
		"amount":       order.AmountMinor,
		"currency":     order.Currency,
		"key":          order.PublicKey,
		"assignmentId": a.ID,
		"provider":     order.Provider,
	}
	if order.ClientSecret != "" {
		resp["clientSecret"] = order.ClientSecret
	}
	c.JSON(http.StatusOK, resp)
}

type verifyRequest struct {
	OrderID      string          `json:"razorpay_order_id"`
	PaymentID    string          `json:"razorpay_payment_id"`
	Signature    string          `json:"razorpay_signature"`
	AssignmentID httputil.FlexID `json:"assignmentId"`
	Amount       int64           `json:"amount"`
}

// POST /api/payments/verify
func (h *Handler) Verify(c *gin.Context) {
	var input verifyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed verification payload"})
		return
	}

	ctx := c.Request.Context()
	studentID := middleware.UserID(c)

	res, err := h.Settler.Verify(ctx, billing.VerifyInput{
		OrderID:      input.OrderID,
		PaymentID:    input.PaymentID,
		Signature:    input.Signature,
		AssignmentID: uint(input.AssignmentID),
		StudentID:    studentID,
		Amount:       input.Amount,
	})

	billing.RecordEvent(ctx, h.DB, billing.GatewayEvent{
		Provider:     billing.ProviderRazorpay,
		Kind:         "checkout.verify",
		OrderID:      input.OrderID,
		PaymentID:    input.PaymentID,
		AssignmentID: uint(input.AssignmentID),
		StudentID:    studentID,
		Verified:     err == nil || (!errors.Is(err, billing.ErrVerificationFailed) && !errors.Is(err, billing.ErrInvalidCallback)),
		Error:        billing.EventError(err),
	}, gin.H{
		"razorpay_order_id":   input.OrderID,
		"razorpay_payment_id": input.PaymentID,
		"assignmentId":        input.AssignmentID,
		"amount":              input.Amount,
	})

	if err != nil {
		status := apperrors.Status(err)
		if status >= http.StatusInternalServerError {
			httputil.Fail(c, err)
			return
		}
		c.JSON(status, gin.H{"success": false, "error": apperrors.Message(err)})
		return
	}

	message := "Payment verified successfully"
	if res.Replayed {
		message = "Payment already verified"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      message,
		"paymentId":    res.Payment.ID,
		"assignmentId": res.Assignment.ID,
		"status":       res.Payment.Status.Label(),
		"replayed":     res.Replayed,
	})
}

type historyEntry struct {
	ID               uint       `json:"id"`
	AssignmentID     uint       `json:"assignmentId"`
	FeeTitle         string     `json:"feeTitle"`
	Category         string     `json:"category"`
	Amount           int64      `json:"amount"`
	Mode             string     `json:"mode"`
	Status           string     `json:"status"`
	GatewayOrderID   *string    `json:"orderId,omitempty"`
	GatewayPaymentID *string    `json:"gatewayPaymentId,omitempty"`
	PaidAt           *time.Time `json:"paidAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	ReceiptURL       string     `json:"receiptUrl,omitempty"`
}

func toHistoryEntry(p billing.Payment) historyEntry {
	e := historyEntry{
		ID:               p.ID,
		AssignmentID:     p.AssignmentID,
		Amount:           p.Amount,
		Mode:             string(p.Mode),
		Status:           p.Status.Label(),
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
	}
	if p.Assignment != nil && p.Assignment.Fee != nil {
		e.FeeTitle = p.Assignment.Fee.Title
		e.Category = string(p.Assignment.Fee.Category)
	}
	if p.Status == billing.StatusCompleted {
		e.ReceiptURL = fmt.Sprintf("/api/payments/receipt/%d", p.ID)
	}
	return e
}

// GET /api/payments/history
func (h *Handler) History(c *gin.Context) {
	list, err := billing.StudentHistory(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	out := make([]historyEntry, 0, len(list))
	for _, p := range list {
		out = append(out, toHistoryEntry(p))
	}
	c.JSON(http.StatusOK, out)
}

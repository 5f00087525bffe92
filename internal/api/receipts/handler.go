package receiptsapi

import (
	"errors"
	"fmt"
	"net/http"

	"getpay-backend/internal/api/httputil"
	"getpay-backend/internal/app/fulfillment"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/domain/access"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/receipts"
	"getpay-backend/internal/infra/storage"
	"getpay-backend/internal/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB          *gorm.DB
	Fulfillment *fulfillment.Service
	Store       storage.Store
}

// GET /api/receipts
func (h *Handler) List(c *gin.Context) {
	out, err := receipts.ListForStudent(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Download streams the PDF receipt of a payment. Students may fetch only
// their own; admins any.
//
// GET /api/receipts/download/:paymentId
// GET /api/payments/receipt/:paymentId
func (h *Handler) Download(c *gin.Context) {
	paymentID, ok := httputil.ParamID(c, "paymentId")
	if !ok {
		httputil.BadRequest(c, "Invalid payment id")
		return
	}
	ctx := c.Request.Context()

	p, err := billing.FindPayment(h.DB.WithContext(ctx), paymentID)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if !access.CanViewStudentData(middleware.Role(c), middleware.UserID(c), p.StudentID) {
		httputil.Fail(c, apperrors.NotFound("Payment not found"))
		return
	}

	r, err := h.Fulfillment.EnsureReceipt(ctx, paymentID)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	f, err := h.Store.Open(ctx, r.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			httputil.Fail(c, apperrors.NotFound("Receipt not found"))
			return
		}
		httputil.Fail(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", f, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, r.FileName),
	})
}

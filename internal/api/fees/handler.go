package feesapi

import (
	"net/http"
	"time"

	"getpay-backend/internal/api/httputil"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/domain/fees"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

// dateLayouts accepted for due dates: a calendar date or a full timestamp.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// POST /api/fees/create
func (h *Handler) CreateFee(c *gin.Context) {
	var input struct {
		Title    string `json:"title" binding:"required"`
		Amount   int64  `json:"amount" binding:"required,gt=0"`
		Category string `json:"category" binding:"required,fee_category"`
		DueDate  string `json:"dueDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "title, a positive amount, a valid category and dueDate are required")
		return
	}
	due, ok := parseDate(input.DueDate)
	if !ok {
		httputil.BadRequest(c, "dueDate must be YYYY-MM-DD or RFC 3339")
		return
	}

	fee, err := fees.CreateFee(h.DB.WithContext(c.Request.Context()), fees.CreateFeeInput{
		Title:    input.Title,
		Amount:   input.Amount,
		Category: input.Category,
		DueDate:  due,
	})
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fee)
}

// POST /api/fees/assign
func (h *Handler) AssignFee(c *gin.Context) {
	var input struct {
		StudentID httputil.FlexID `json:"studentId" binding:"required"`
		FeeID     httputil.FlexID `json:"feeId" binding:"required"`
		DueDate   string          `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "studentId and feeId are required")
		return
	}

	var due time.Time
	if input.DueDate != "" {
		d, ok := parseDate(input.DueDate)
		if !ok {
			httputil.BadRequest(c, "dueDate must be YYYY-MM-DD or RFC 3339")
			return
		}
		due = d
	}

	a, err := fees.Assign(h.DB.WithContext(c.Request.Context()), uint(input.StudentID), uint(input.FeeID), due)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GET /api/fees
func (h *Handler) ListFees(c *gin.Context) {
	out, err := fees.ListFees(h.DB.WithContext(c.Request.Context()))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/fees/my-fees
func (h *Handler) MyFees(c *gin.Context) {
	out, err := fees.StudentAssignments(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

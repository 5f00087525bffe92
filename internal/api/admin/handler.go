package admin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"getpay-backend/internal/api/httputil"
	"getpay-backend/internal/domain/access"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	DB      *gorm.DB
	Settler *billing.Settler
}

type AdminStudent struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegistrationNo string    `json:"registrationNo"`
	ClassName      string    `json:"className"`
	CreatedAt      time.Time `json:"createdAt"`
}

type AdminPayment struct {
	ID               uint       `json:"id"`
	StudentID        uint       `json:"studentId"`
	StudentName      string     `json:"studentName"`
	Email            string     `json:"email"`
	RegistrationNo   string     `json:"registrationNo"`
	ClassName        string     `json:"className"`
	AssignmentID     uint       `json:"assignmentId"`
	FeeTitle         string     `json:"feeTitle"`
	Category         string     `json:"category"`
	Amount           int64      `json:"amount"`
	Mode             string     `json:"mode"`
	Provider         string     `json:"provider"`
	Status           string     `json:"status"`
	GatewayOrderID   *string    `json:"orderId,omitempty"`
	GatewayPaymentID *string    `json:"gatewayPaymentId,omitempty"`
	PaidAt           *time.Time `json:"paidAt"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toAdminStudent(s students.Student) AdminStudent {
	return AdminStudent{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		RegistrationNo: s.RegistrationNo,
		ClassName:      s.ClassName,
		CreatedAt:      s.CreatedAt,
	}
}

func toAdminPayment(p billing.Payment) AdminPayment {
	out := AdminPayment{
		ID:               p.ID,
		StudentID:        p.StudentID,
		AssignmentID:     p.AssignmentID,
		Amount:           p.Amount,
		Mode:             string(p.Mode),
		Provider:         p.Provider,
		Status:           p.Status.Label(),
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
	}
	if p.Student != nil {
		out.StudentName = p.Student.Name
		out.Email = p.Student.Email
		out.RegistrationNo = p.Student.RegistrationNo
		out.ClassName = p.Student.ClassName
	}
	if p.Assignment != nil && p.Assignment.Fee != nil {
		out.FeeTitle = p.Assignment.Fee.Title
		out.Category = string(p.Assignment.Fee.Category)
	}
	return out
}

func toAdminPayments(list []billing.Payment) []AdminPayment {
	out := make([]AdminPayment, 0, len(list))
	for _, p := range list {
		out = append(out, toAdminPayment(p))
	}
	return out
}

// GET /api/admin/students
func (h *Handler) ListStudents(c *gin.Context) {
	q := h.DB.WithContext(c.Request.Context()).
		Where("role = ?", access.RoleStudent).
		Order("name ASC")
	if className := strings.TrimSpace(c.Query("className")); className != "" {
		q = q.Where("class_name = ?", className)
	}

	var list []students.Student
	if err := q.Find(&list).Error; err != nil {
		httputil.Fail(c, err)
		return
	}

	out := make([]AdminStudent, 0, len(list))
	for _, s := range list {
		out = append(out, toAdminStudent(s))
	}
	c.JSON(http.StatusOK, out)
}

// CreateStudent adds a student account. The registration number doubles as
// the initial password.
//
// POST /api/admin/students
func (h *Handler) CreateStudent(c *gin.Context) {
	var input struct {
		Name           string `json:"name" binding:"required"`
		Email          string `json:"email" binding:"required,email"`
		RegistrationNo string `json:"registrationNo" binding:"required"`
		ClassName      string `json:"className"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "Name, email and registrationNo are required")
		return
	}

	s := students.Student{
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		RegistrationNo: strings.TrimSpace(input.RegistrationNo),
		ClassName:      strings.TrimSpace(input.ClassName),
		Role:           access.RoleStudent,
	}
	if err := s.SetPassword(s.RegistrationNo); err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := students.Create(h.DB.WithContext(c.Request.Context()), &s); err != nil {
		httputil.Fail(c, err)
		return
	}

	logger.Info().Uint("student_id", s.ID).Msg("student created by admin")
	c.JSON(http.StatusCreated, toAdminStudent(s))
}

// GET /api/admin/payments?status=&className=&q=
func (h *Handler) ListPayments(c *gin.Context) {
	list, err := billing.ListPayments(h.DB.WithContext(c.Request.Context()), billing.PaymentFilter{
		Status:    c.Query("status"),
		ClassName: c.Query("className"),
		Query:     c.Query("q"),
	})
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminPayments(list))
}

// RecentPayments returns payments created after ?since= (RFC3339 or unix
// seconds), capped at 50. Without since it returns the latest 50.
//
// GET /api/admin/payments/recent
func (h *Handler) RecentPayments(c *gin.Context) {
	f := billing.PaymentFilter{Limit: 50}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, ok := parseSince(raw)
		if !ok {
			httputil.BadRequest(c, "since must be RFC3339 or unix seconds")
			return
		}
		f.Since = &since
	}

	list, err := billing.ListPayments(h.DB.WithContext(c.Request.Context()), f)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminPayments(list))
}

func parseSince(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

// GET /api/admin/payments/stats
func (h *Handler) Stats(c *gin.Context) {
	st, err := billing.ComputeStats(h.DB.WithContext(c.Request.Context()), time.Now().UTC())
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/admin/payments/:paymentId
func (h *Handler) PaymentDetails(c *gin.Context) {
	id, ok := httputil.ParamID(c, "paymentId")
	if !ok {
		httputil.BadRequest(c, "Invalid payment id")
		return
	}
	p, err := billing.FindPayment(h.DB.WithContext(c.Request.Context()), id)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminPayment(*p))
}

// RecordOffline settles an assignment paid at the counter. It runs the same
// transaction as an online payment, under a generated reference.
//
// POST /api/admin/payments/offline
func (h *Handler) RecordOffline(c *gin.Context) {
	var input struct {
		StudentID    httputil.FlexID `json:"studentId" binding:"required"`
		AssignmentID httputil.FlexID `json:"assignmentId" binding:"required"`
		Amount       int64           `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "studentId, assignmentId and amount are required")
		return
	}

	res, err := h.Settler.Settle(c.Request.Context(), billing.SettleInput{
		StudentID:    uint(input.StudentID),
		AssignmentID: uint(input.AssignmentID),
		Amount:       input.Amount,
		Mode:         billing.ModeOffline,
		Provider:     billing.ProviderOffline,
		PaymentID:    "offline_" + uuid.NewString(),
	})
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	logger.Info().
		Uint("payment_id", res.Payment.ID).
		Uint("assignment_id", res.Assignment.ID).
		Msg("offline payment recorded")
	c.JSON(http.StatusCreated, toAdminPayment(res.Payment))
}

// GET /api/admin/classes
func (h *Handler) Classes(c *gin.Context) {
	names, err := students.ClassNames(h.DB.WithContext(c.Request.Context()))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

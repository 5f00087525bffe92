package auth

import (
	"errors"
	"net/http"
	"strings"

	"getpay-backend/internal/api/httputil"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/domain/access"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB        *gorm.DB
	JWTSecret string
	Google    *GoogleAuth
}

type sessionResponse struct {
	ID             uint        `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	RegistrationNo string      `json:"registrationNo"`
	ClassName      string      `json:"className"`
	Role           access.Role `json:"role"`
	Token          string      `json:"token"`
}

func (h *Handler) session(s *students.Student) (sessionResponse, error) {
	token, err := middleware.IssueToken(h.JWTSecret, s.ID, s.Email, s.Role)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		RegistrationNo: s.RegistrationNo,
		ClassName:      s.ClassName,
		Role:           s.Role,
		Token:          token,
	}, nil
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name           string `json:"name" binding:"required"`
		Email          string `json:"email" binding:"required,email"`
		RegistrationNo string `json:"registrationNo" binding:"required"`
		Password       string `json:"password" binding:"required,min=6"`
		ClassName      string `json:"className"`
		Department     string `json:"department"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "Name, email, registrationNo and a password of at least 6 characters are required")
		return
	}

	className := strings.TrimSpace(input.ClassName)
	if className == "" {
		className = strings.TrimSpace(input.Department)
	}

	s := students.Student{
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		RegistrationNo: input.RegistrationNo,
		ClassName:      className,
		Role:           access.RoleStudent,
	}
	if err := s.SetPassword(input.Password); err != nil {
		httputil.Fail(c, err)
		return
	}
	if err := students.Create(h.DB.WithContext(c.Request.Context()), &s); err != nil {
		httputil.Fail(c, err)
		return
	}

	resp, err := h.session(&s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	logger.Info().Uint("student_id", s.ID).Msg("student registered")
	c.JSON(http.StatusCreated, resp)
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.BadRequest(c, "Email and password are required")
		return
	}

	s, err := students.FindByEmail(h.DB.WithContext(c.Request.Context()), input.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		httputil.Fail(c, err)
		return
	}
	if s == nil || !s.CheckPassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	resp, err := h.session(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/auth/profile
func (h *Handler) Profile(c *gin.Context) {
	if s := middleware.Account(c); s != nil {
		c.JSON(http.StatusOK, s)
		return
	}
	s, err := students.FindByID(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

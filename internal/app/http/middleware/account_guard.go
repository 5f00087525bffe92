package middleware

import (
	"errors"
	"net/http"

	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const ctxAccount = "account"

// RequireAccount rejects tokens whose account no longer exists and refreshes
// the role from the record, so a demoted account loses access immediately.
func RequireAccount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := students.FindByID(db.WithContext(c.Request.Context()), UserID(c))
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}

		c.Set(ctxAccount, s)
		c.Set(ctxRole, s.Role)
		c.Next()
	}
}

// Account returns the record loaded by RequireAccount.
func Account(c *gin.Context) *students.Student {
	v, _ := c.Get(ctxAccount)
	s, _ := v.(*students.Student)
	return s
}

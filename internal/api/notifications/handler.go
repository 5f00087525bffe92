package notificationsapi

import (
	"net/http"

	"getpay-backend/internal/api/httputil"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/domain/notifications"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

// GET /api/notifications
func (h *Handler) List(c *gin.Context) {
	list, err := notifications.Latest(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := notifications.UnreadCount(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// PUT /api/notifications/:notificationId/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := httputil.ParamID(c, "notificationId")
	if !ok {
		httputil.BadRequest(c, "Invalid notification id")
		return
	}
	if err := notifications.MarkRead(h.DB.WithContext(c.Request.Context()), middleware.UserID(c), id); err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// PUT /api/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := notifications.MarkAllRead(h.DB.WithContext(c.Request.Context()), middleware.UserID(c))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": n})
}

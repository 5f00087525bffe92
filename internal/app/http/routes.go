package routes

import (
	adminapi "getpay-backend/internal/api/admin"
	authapi "getpay-backend/internal/api/auth"
	feesapi "getpay-backend/internal/api/fees"
	notificationsapi "getpay-backend/internal/api/notifications"
	paymentsapi "getpay-backend/internal/api/payments"
	receiptsapi "getpay-backend/internal/api/receipts"
	stripewebhooks "getpay-backend/internal/api/stripewebhook"
	"getpay-backend/internal/app/fulfillment"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/domain/access"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/infra/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Deps struct {
	DB          *gorm.DB
	JWTSecret   string
	Currency    string
	Settler     *billing.Settler
	Gateway     billing.Gateway
	Fulfillment *fulfillment.Service
	Store       storage.Store
	Google      *authapi.GoogleAuth

	// StripeWebhookSecret enables POST /api/webhooks/stripe when set.
	StripeWebhookSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	feesapi.RegisterValidators()

	authH := &authapi.Handler{DB: d.DB, JWTSecret: d.JWTSecret, Google: d.Google}
	feesH := &feesapi.Handler{DB: d.DB}
	paymentsH := &paymentsapi.Handler{DB: d.DB, Settler: d.Settler, Gateway: d.Gateway, Currency: d.Currency}
	receiptsH := &receiptsapi.Handler{DB: d.DB, Fulfillment: d.Fulfillment, Store: d.Store}
	notificationsH := &notificationsapi.Handler{DB: d.DB}
	adminH := &adminapi.Handler{DB: d.DB, Settler: d.Settler}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	if d.StripeWebhookSecret != "" {
		webhookH := &stripewebhooks.Handler{DB: d.DB, Settler: d.Settler, WebhookSecret: d.StripeWebhookSecret}
		api.POST("/webhooks/stripe", webhookH.Handle)
	}

	public := api.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/auth/register", authH.Register)
	public.POST("/auth/login", authH.Login)
	if d.Google != nil {
		public.GET("/auth/google", authH.GoogleStart)
		public.GET("/auth/google/callback", authH.GoogleCallback)
	}

	// Authenticated
	auth := api.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireAccount(d.DB))
	auth.GET("/auth/profile", authH.Profile)
	auth.GET("/payments/receipt/:paymentId", receiptsH.Download)

	// Students
	student := auth.Group("/")
	student.Use(middleware.RequireRole(access.RoleStudent))
	student.GET("/fees/my-fees", feesH.MyFees)
	student.POST("/payments/create-order", paymentsH.CreateOrder)
	student.POST("/payments/verify", paymentsH.Verify)
	student.GET("/payments/history", paymentsH.History)
	student.GET("/receipts", receiptsH.List)
	student.GET("/receipts/download/:paymentId", receiptsH.Download)
	student.GET("/notifications", notificationsH.List)
	student.GET("/notifications/unread-count", notificationsH.UnreadCount)
	student.PUT("/notifications/read-all", notificationsH.MarkAllRead)
	student.PUT("/notifications/:notificationId/read", notificationsH.MarkRead)

	// Admin
	admin := auth.Group("/")
	admin.Use(middleware.RequireRole(access.RoleAdmin))
	admin.GET("/fees", feesH.ListFees)
	admin.POST("/fees/create", feesH.CreateFee)
	admin.POST("/fees/assign", feesH.AssignFee)
	admin.GET("/admin/students", adminH.ListStudents)
	admin.POST("/admin/students", adminH.CreateStudent)
	admin.GET("/admin/payments", adminH.ListPayments)
	admin.GET("/admin/payments/stats", adminH.Stats)
	admin.GET("/admin/payments/recent", adminH.RecentPayments)
	admin.GET("/admin/payments/:paymentId", adminH.PaymentDetails)
	admin.POST("/admin/payments/offline", adminH.RecordOffline)
	admin.GET("/admin/classes", adminH.Classes)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"getpay-backend/config"
	"getpay-backend/database"
	authapi "getpay-backend/internal/api/auth"
	"getpay-backend/internal/app/fulfillment"
	routes "getpay-backend/internal/app/http"
	"getpay-backend/internal/app/http/middleware"
	"getpay-backend/internal/app/jobs"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/infra/mail"
	"getpay-backend/internal/infra/razorpay"
	"getpay-backend/internal/infra/storage"
	"getpay-backend/internal/infra/stripe"
	"getpay-backend/internal/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Configure(logger.Config{Pretty: true})
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	production := cfg.AppEnv == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DBURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	if err := database.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	store, err := storage.NewLocalStorage(cfg.ReceiptsDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ReceiptsDir).Msg("receipt storage unavailable")
	}

	mailer := mail.New(mail.Config{
		SMTPHost:       cfg.SMTP.Host,
		SMTPPort:       cfg.SMTP.Port,
		SMTPUsername:   cfg.SMTP.Username,
		SMTPPassword:   cfg.SMTP.Password,
		From:           cfg.SMTP.From,
		FromName:       "GetPay Fees",
		SendgridAPIKey: cfg.SendgridAPIKey,
	})

	fulfiller := fulfillment.New(db, store, mailer, fulfillment.Options{
		Currency: cfg.Currency,
		Sync:     cfg.SideEffectsSync,
	})
	rzp := razorpay.NewGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	settler := billing.NewSettler(db, razorpay.NewVerifier(cfg.RazorpayKeySecret), rzp, fulfiller)

	var gateway billing.Gateway = rzp
	webhookSecret := ""
	if cfg.Gateway == config.GatewayStripe {
		gateway = stripe.NewGateway(cfg.StripeSecretKey, cfg.StripePublishableKey)
		webhookSecret = cfg.StripeWebhookSecret
	}

	var google *authapi.GoogleAuth
	if cfg.Google.Enabled() {
		google = authapi.NewGoogleAuth(cfg.Google, production)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		DB:                  db,
		JWTSecret:           cfg.JWTSecret,
		Currency:            cfg.Currency,
		Settler:             settler,
		Gateway:             gateway,
		Fulfillment:         fulfiller,
		Store:               store,
		Google:              google,
		StripeWebhookSecret: webhookSecret,
	})

	scheduler, err := jobs.Schedule(cfg.OverdueCron, jobs.NewOverdueJob(db))
	if err != nil {
		logger.Fatal().Err(err).Msg("overdue job not scheduled")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("gateway", gateway.Provider()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	<-scheduler.Stop().Done()
	fulfiller.Wait()
	logger.Info().Msg("bye")
}

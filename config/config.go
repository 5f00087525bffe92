package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
)

type Config struct {
	Port       string
	AppEnv     string
	CORSOrigin string
	DBURL      string
	JWTSecret  string

	LogLevel  string
	LogPretty bool

	Gateway  string
	Currency string

	RazorpayKeyID     string
	RazorpayKeySecret string

	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePublishableKey string

	SMTP           SMTPConfig
	SendgridAPIKey string

	ReceiptsDir     string
	OverdueCron     string
	SideEffectsSync bool

	AdminEmail    string
	AdminPassword string

	Google GoogleConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
}

// Enabled reports whether Google sign-in is fully configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

// Load reads .env (if any) and the process environment. Missing required
// keys are reported together so the process can fail fast.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	must := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		AppEnv:     getEnv("APP_ENV", "development"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		DBURL:      must("DB_URL"),
		JWTSecret:  must("JWT_SECRET"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getBool("LOG_PRETTY", true),

		Gateway:  strings.ToLower(getEnv("PAYMENT_GATEWAY", GatewayRazorpay)),
		Currency: strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),

		RazorpayKeyID:     must("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: must("RAZORPAY_KEY_SECRET"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@getpay.local"),
		},
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),

		ReceiptsDir:     getEnv("RECEIPTS_DIR", "./receipts"),
		OverdueCron:     getEnv("OVERDUE_CRON", "@hourly"),
		SideEffectsSync: getBool("SIDE_EFFECTS_SYNC", false),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Google: GoogleConfig{
			ClientID:         os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret:     os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:      os.Getenv("GOOGLE_REDIRECT_URL"),
			FrontendRedirect: os.Getenv("GOOGLE_FRONTEND_REDIRECT"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules that depend on the selected gateway.
func (c *Config) Validate() error {
	switch c.Gateway {
	case GatewayRazorpay:
	case GatewayStripe:
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			return fmt.Errorf("PAYMENT_GATEWAY=stripe requires STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_GATEWAY %q", c.Gateway)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("PAYMENT_CURRENCY must be an ISO 4217 code, got %q", c.Currency)
	}
	return nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	Env    string // development, test, production
	JWTKey string

	PaymentWebhookSecret string
	SkipWebhookSignature bool // honoured outside production only
	WebhookMaxSkewMin    int  // 0 disables the timestamp window

	ReconcilerCron string

	GamificationApiUrl string
	GamificationApiKey string

	SendGridApiKey string
	EmailSender    string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		Env:    getEnv("APP_ENV", "development"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		SkipWebhookSignature: getEnvBool("SKIP_WEBHOOK_SIGNATURE", false),
		WebhookMaxSkewMin:    getEnvInt("WEBHOOK_MAX_SKEW_MIN", 10),

		ReconcilerCron: getEnv("RECONCILER_CRON", "@every 6h"),

		GamificationApiUrl: getEnv("GAMIFICATION_API_URL", ""),
		GamificationApiKey: getEnv("GAMIFICATION_API_KEY", ""),

		SendGridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "noreply@learnly.in"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.PaymentWebhookSecret == "" && AppConfig.Env == "production" {
		log.Println("Warning: PAYMENT_WEBHOOK_SECRET is empty in production. Webhook signatures cannot be verified.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvBool retrieves an environment variable as a bool or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}

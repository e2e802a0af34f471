package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	RedisURL      string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTIssuer         string
	JWTExpiryDuration time.Duration

	// Payment collaborator
	PaymentAPIURL string
	PaymentAPIKey string

	// AI generation collaborator (receipt extraction)
	GenerationAPIURL string
	GenerationAPIKey string
	GenerationModel  string

	PosthogAPIKey string

	// Requests per minute allowed per client IP.
	RateLimitPerMinute int

	FrontendBaseURL string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "storefront-backend")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("PAYMENT_API_URL", "")
	viper.SetDefault("PAYMENT_API_KEY", "")
	viper.SetDefault("GENERATION_API_URL", "")
	viper.SetDefault("GENERATION_API_KEY", "")
	viper.SetDefault("GENERATION_MODEL", "vision-large")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration

	cfg.PaymentAPIURL = viper.GetString("PAYMENT_API_URL")
	cfg.PaymentAPIKey = viper.GetString("PAYMENT_API_KEY")
	if cfg.PaymentAPIURL == "" {
		log.Println("Warning: PAYMENT_API_URL not set. Checkout payment intents will fail.")
	}

	cfg.GenerationAPIURL = viper.GetString("GENERATION_API_URL")
	cfg.GenerationAPIKey = viper.GetString("GENERATION_API_KEY")
	cfg.GenerationModel = viper.GetString("GENERATION_MODEL")
	if cfg.GenerationAPIURL == "" {
		log.Println("Warning: GENERATION_API_URL not set. Receipt extraction will fail.")
	}

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.RateLimitPerMinute = viper.GetInt("RATE_LIMIT_PER_MINUTE")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")

	return cfg, nil
}

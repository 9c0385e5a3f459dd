package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payment gateway.
	StripeKey string `mapstructure:"STRIPE_KEY"`
	Currency  string `mapstructure:"CURRENCY"`

	// Google Maps API key for setup-fee distance lookups.
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`
	// DepotAddress is the origin used when computing travel distance.
	DepotAddress string `mapstructure:"DEPOT_ADDRESS"`

	// Firebase service account for FCM pushes.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Booking engine tuning.
	HoldTTLMinutes     int `mapstructure:"HOLD_TTL_MINUTES"`
	SessionTTLMinutes  int `mapstructure:"SESSION_TTL_MINUTES"`
	GatewayTimeoutSecs int `mapstructure:"GATEWAY_TIMEOUT_SECS"`
	BusinessOpenMin    int `mapstructure:"BUSINESS_OPEN_MIN"`
	BusinessCloseMin   int `mapstructure:"BUSINESS_CLOSE_MIN"`

	// Setup-fee pricing. MaxSetupFeeCents doubles as the conservative
	// fallback when the distance lookup is degraded.
	SetupBaseFeeCents int64 `mapstructure:"SETUP_BASE_FEE_CENTS"`
	SetupPerKmCents   int64 `mapstructure:"SETUP_PER_KM_CENTS"`
	MaxSetupFeeCents  int64 `mapstructure:"MAX_SETUP_FEE_CENTS"`

	// AllowPromoBypass enables percentage and bypass promo codes.
	// Resolved once at startup; must never be true in production.
	AllowPromoBypass bool `mapstructure:"ALLOW_PROMO_BYPASS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("DEPOT_ADDRESS", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json")
	viper.SetDefault("HOLD_TTL_MINUTES", 10)
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("GATEWAY_TIMEOUT_SECS", 30)
	viper.SetDefault("BUSINESS_OPEN_MIN", 480)   // 8:00 AM
	viper.SetDefault("BUSINESS_CLOSE_MIN", 1200) // 8:00 PM
	viper.SetDefault("SETUP_BASE_FEE_CENTS", 500)
	viper.SetDefault("SETUP_PER_KM_CENTS", 100)
	viper.SetDefault("MAX_SETUP_FEE_CENTS", 5000)
	viper.SetDefault("ALLOW_PROMO_BYPASS", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if IsProduction() && AppConfig.AllowPromoBypass {
		log.Fatalf("ALLOW_PROMO_BYPASS must not be enabled in production")
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// HoldTTL returns the configured hold duration.
func HoldTTL() time.Duration {
	return time.Duration(AppConfig.HoldTTLMinutes) * time.Minute
}

// SessionTTL returns the configured booking-session lifetime.
func SessionTTL() time.Duration {
	return time.Duration(AppConfig.SessionTTLMinutes) * time.Minute
}

// GatewayTimeout bounds payment gateway calls.
func GatewayTimeout() time.Duration {
	return time.Duration(AppConfig.GatewayTimeoutSecs) * time.Second
}

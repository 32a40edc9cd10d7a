package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	App      AppConfig
	Telegram TelegramConfig
	TopUp    TopUpConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string // sqlite file, used when Driver is sqlite
}

// RedisConfig holds the settings cache connection. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// TelegramConfig holds bot credentials used for notifications and WebApp login
type TelegramConfig struct {
	BotToken    string
	BotUsername string
	AdminIDs    []int64
}

// TopUpConfig is the single parameter set for the top-up workflow.
type TopUpConfig struct {
	MinAmount      decimal.Decimal
	MaxAmount      decimal.Decimal
	CommissionRate decimal.Decimal
	MaxReceiptSize int64
	UploadDir      string
	ReminderAfter  time.Duration
	ReminderEvery  time.Duration
}

// DefaultTopUpConfig returns the bounds and rate used when nothing is configured.
func DefaultTopUpConfig() TopUpConfig {
	return TopUpConfig{
		MinAmount:      decimal.NewFromInt(100),
		MaxAmount:      decimal.NewFromInt(100000),
		CommissionRate: decimal.NewFromFloat(0.05),
		MaxReceiptSize: 25 * 1024 * 1024,
		UploadDir:      "uploads/receipts",
		ReminderAfter:  30 * time.Minute,
		ReminderEvery:  5 * time.Minute,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	defaults := DefaultTopUpConfig()

	adminIDs, err := parseIDList(getEnv("ADMIN_TELEGRAM_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "balance_topup"),
			Path:     getEnv("DB_PATH", "topup.db"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			BotUsername: getEnv("TELEGRAM_BOT_USERNAME", "voidshop_bot"),
			AdminIDs:    adminIDs,
		},
		TopUp: TopUpConfig{
			MinAmount:      getEnvDecimal("TOPUP_MIN_AMOUNT", defaults.MinAmount),
			MaxAmount:      getEnvDecimal("TOPUP_MAX_AMOUNT", defaults.MaxAmount),
			CommissionRate: getEnvDecimal("REFERRAL_COMMISSION_RATE", defaults.CommissionRate),
			MaxReceiptSize: getEnvInt64("RECEIPT_MAX_BYTES", defaults.MaxReceiptSize),
			UploadDir:      getEnv("UPLOAD_DIR", defaults.UploadDir),
			ReminderAfter:  getEnvDuration("REVIEW_REMINDER_AFTER", defaults.ReminderAfter),
			ReminderEvery:  getEnvDuration("REVIEW_REMINDER_EVERY", defaults.ReminderEvery),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if err := config.TopUp.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the top-up parameters are coherent
func (t TopUpConfig) Validate() error {
	if !t.MinAmount.IsPositive() {
		return fmt.Errorf("TOPUP_MIN_AMOUNT must be positive")
	}
	if t.MaxAmount.LessThan(t.MinAmount) {
		return fmt.Errorf("TOPUP_MAX_AMOUNT must not be below TOPUP_MIN_AMOUNT")
	}
	if t.CommissionRate.IsNegative() || t.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("REFERRAL_COMMISSION_RATE must be in [0, 1)")
	}
	if t.MaxReceiptSize <= 0 {
		return fmt.Errorf("RECEIPT_MAX_BYTES must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value, err := decimal.NewFromString(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

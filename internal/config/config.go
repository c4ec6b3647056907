package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the gateway.
type Config struct {
	HTTPPort  string
	JWTSecret []byte

	Pricing       PricingConfig
	Payment       PaymentConfig
	Gemini        GeminiConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Admin         AdminConfig
	RequestLogger RequestLoggerConfig
}

// PricingConfig holds the per-tier price and token-limit tables.
// Prices are decimal STX; the image column covers requests carrying a payload.
type PricingConfig struct {
	TextPrices  map[string]float64
	ImagePrices map[string]float64
	TokenLimits map[string]int

	// MinQualityScore is the quality threshold reported as shouldCharge
	// on free-tier responses. It never gates billing on paid tiers.
	MinQualityScore float64

	// DailyLimitSTX is a display-only budget surfaced to clients.
	DailyLimitSTX float64
}

// PaymentConfig holds x402 payment protocol settings.
type PaymentConfig struct {
	Network        string // "mainnet" or "testnet"
	PayTo          string // STX address receiving payments
	FacilitatorURL string
	BaseURL        string // public base URL used in discovery resources
	ServiceName    string
	ServiceImage   string
	VerifyTimeout  time.Duration
}

// GeminiConfig holds inference provider settings.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AdminConfig holds credentials for the analytics endpoints.
type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt hash; empty disables admin endpoints
	TokenTTL     time.Duration
}

type RequestLoggerConfig struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvFloat(key string, defaultValue float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnvString("HTTP_PORT", "8080")
	jwtSecret := []byte(getEnvString("JWT_SECRET", "supersecretkey"))

	payTo := os.Getenv("SERVER_ADDRESS")
	if payTo == "" {
		return nil, fmt.Errorf("SERVER_ADDRESS is required")
	}

	cfg := &Config{
		HTTPPort:  port,
		JWTSecret: jwtSecret,
		Pricing: PricingConfig{
			TextPrices: map[string]float64{
				"standard":   getEnvFloat("PRICE_STANDARD_TEXT", 0.01),
				"advanced":   getEnvFloat("PRICE_ADVANCED_TEXT", 0.02),
				"premium":    getEnvFloat("PRICE_PREMIUM_TEXT", 0.03),
				"enterprise": getEnvFloat("PRICE_ENTERPRISE_TEXT", 0.05),
			},
			ImagePrices: map[string]float64{
				"standard":   getEnvFloat("PRICE_STANDARD_IMAGE", 0.02),
				"advanced":   getEnvFloat("PRICE_ADVANCED_IMAGE", 0.04),
				"premium":    getEnvFloat("PRICE_PREMIUM_IMAGE", 0.06),
				"enterprise": getEnvFloat("PRICE_ENTERPRISE_IMAGE", 0.10),
			},
			TokenLimits: map[string]int{
				"standard":   getEnvInt("TOKEN_LIMIT_STANDARD", 500),
				"advanced":   getEnvInt("TOKEN_LIMIT_ADVANCED", 2000),
				"premium":    getEnvInt("TOKEN_LIMIT_PREMIUM", 5000),
				"enterprise": getEnvInt("TOKEN_LIMIT_ENTERPRISE", 10000),
			},
			MinQualityScore: getEnvFloat("MIN_QUALITY_SCORE", 0.60),
			DailyLimitSTX:   getEnvFloat("DAILY_LIMIT_STX", 0.5),
		},
		Payment: PaymentConfig{
			Network:        getEnvString("NETWORK", "testnet"),
			PayTo:          payTo,
			FacilitatorURL: getEnvString("FACILITATOR_URL", "https://facilitator.stacksx402.com"),
			BaseURL:        getEnvString("BASE_URL", "http://localhost:"+port),
			ServiceName:    getEnvString("SERVICE_NAME", "Vision AI Analysis Service"),
			ServiceImage:   getEnvString("SERVICE_IMAGE", ""),
			VerifyTimeout:  getEnvDuration("FACILITATOR_VERIFY_TIMEOUT", 300*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnvString("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL: getEnvString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout: getEnvDuration("GEMINI_TIMEOUT", 300*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", ""),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Admin: AdminConfig{
			Username:     getEnvString("ADMIN_USERNAME", "admin"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 15*time.Minute),
		},
		RequestLogger: RequestLoggerConfig{
			FilePath:   getEnvString("REQUEST_LOGGER_FILE_PATH", "/var/log/vision-gateway/requests.jsonl"),
			MaxSizeMB:  getEnvInt("REQUEST_LOGGER_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("REQUEST_LOGGER_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("REQUEST_LOGGER_MAX_AGE_DAYS", 30),
		},
	}

	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects price tables that break the tier ordering contract:
// prices and token limits must strictly increase with tier rank, and the
// image price must never undercut the text price.
func (p PricingConfig) validate() error {
	rank := []string{"standard", "advanced", "premium", "enterprise"}

	for i, tier := range rank {
		text, ok := p.TextPrices[tier]
		if !ok {
			return fmt.Errorf("missing text price for tier %q", tier)
		}
		image, ok := p.ImagePrices[tier]
		if !ok {
			return fmt.Errorf("missing image price for tier %q", tier)
		}
		if image < text {
			return fmt.Errorf("image price below text price for tier %q", tier)
		}
		limit, ok := p.TokenLimits[tier]
		if !ok {
			return fmt.Errorf("missing token limit for tier %q", tier)
		}

		if i == 0 {
			continue
		}
		prev := rank[i-1]
		if text <= p.TextPrices[prev] || image <= p.ImagePrices[prev] {
			return fmt.Errorf("price for tier %q does not exceed tier %q", tier, prev)
		}
		if limit <= p.TokenLimits[prev] {
			return fmt.Errorf("token limit for tier %q does not exceed tier %q", tier, prev)
		}
	}

	return nil
}

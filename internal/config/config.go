package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"stagepass/internal/cache"
	"stagepass/internal/database"
	"stagepass/internal/messaging"
)

// DefaultFeeRate is the platform service fee applied to the discounted total.
var DefaultFeeRate = decimal.NewFromFloat(0.03)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Database database.Config
	NATS     messaging.Config
	Cache    cache.Config
	Pricing  PricingConfig
	Saga     SagaConfig
}

// PricingConfig holds the named pricing knobs of the order assembler.
type PricingConfig struct {
	// FeeRate is the fraction of the discounted total charged as fees.
	FeeRate decimal.Decimal
	// EnforceSaleWindow gates purchases on ticket type sale_start/sale_end.
	// The original purchase path never checked the window; keep it off until
	// the product owners confirm which behavior is intended.
	EnforceSaleWindow bool
}

// SagaConfig controls the side-effect reconciler.
type SagaConfig struct {
	SweepInterval time.Duration
	SweepBatch    int
	MinAge        time.Duration
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "stagepass"),
			Password:           getEnv("DB_PASSWORD", "stagepass123"),
			DBName:             getEnv("DB_NAME", "stagepass"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "stagepass"),
			ClientID:  getEnv("NATS_CLIENT_ID", "stagepass-api"),
		},

		Cache: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("CATALOG_CACHE_TTL_SEC", 30)) * time.Second,
		},

		Pricing: PricingConfig{
			FeeRate:           getEnvDecimal("FEE_RATE", DefaultFeeRate),
			EnforceSaleWindow: getEnvBool("ENFORCE_SALE_WINDOW", false),
		},

		Saga: SagaConfig{
			SweepInterval: time.Duration(getEnvInt("SAGA_SWEEP_INTERVAL_SEC", 30)) * time.Second,
			SweepBatch:    getEnvInt("SAGA_SWEEP_BATCH", 100),
			MinAge:        time.Duration(getEnvInt("SAGA_MIN_AGE_SEC", 10)) * time.Second,
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

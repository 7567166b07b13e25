package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const (
	ConfirmStoreMySQL = "mysql"
	ConfirmStoreRedis = "redis"
)

// Config holds all configuration for the nightsafe service
type Config struct {
	// Server configuration
	Port int

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Confirmation store: "mysql" or "redis"
	ConfirmStore       string
	ConfirmMaxAttempts int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// RabbitMQ configuration, publishing is off when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Risk engine tuning
	LookbackDays int
	CellSizeDeg  float64
	BaseRadiusM  float64
	BBoxDeltaDeg float64
	NightTZ      *time.Location
}

// Load reads .env when present and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port: getIntEnv("PORT", 8080),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "nightsafe"),

		ConfirmStore:       getEnv("CONFIRM_STORE", ConfirmStoreMySQL),
		ConfirmMaxAttempts: getIntEnv("CONFIRM_MAX_ATTEMPTS", 5),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "nightsafe"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report_confirmed"),

		LookbackDays: getIntEnv("LOOKBACK_DAYS", 30),
		CellSizeDeg:  getFloatEnv("CELL_SIZE_DEG", 0.005),
		BaseRadiusM:  getFloatEnv("BASE_RADIUS_M", 150),
		BBoxDeltaDeg: getFloatEnv("BBOX_DELTA_DEG", 0.002),
		NightTZ:      getLocationEnv("NIGHT_TZ", time.UTC),
	}
	if cfg.ConfirmStore != ConfirmStoreMySQL && cfg.ConfirmStore != ConfirmStoreRedis {
		log.Warnf("Unknown CONFIRM_STORE %q, falling back to %s", cfg.ConfirmStore, ConfirmStoreMySQL)
		cfg.ConfirmStore = ConfirmStoreMySQL
	}
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
		log.Warnf("Ignoring bad %s=%q", key, value)
	}
	return defaultValue
}

func getLocationEnv(key string, defaultValue *time.Location) *time.Location {
	if value := os.Getenv(key); value != "" {
		loc, err := time.LoadLocation(value)
		if err == nil {
			return loc
		}
		log.Warnf("Ignoring bad %s=%q: %v", key, value, err)
	}
	return defaultValue
}

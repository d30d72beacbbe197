package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Хранилище инцидентов
	IncidentStore string `env:"INCIDENT_STORE" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxConns     int    `env:"DB_MAX_CONNS" envDefault:"10"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	SeedIncidents  bool   `env:"SEED_INCIDENTS" envDefault:"true"`

	// Сессии и уведомления
	StateStore string `env:"STATE_STORE" envDefault:"memory"`

	// Redis Config
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`

	// Диспетчеризация
	StatusPolicy         string        `env:"STATUS_POLICY" envDefault:"any"`
	SimulatorEnabled     bool          `env:"SIMULATOR_ENABLED" envDefault:"true"`
	SimulatorMinInterval time.Duration `env:"SIMULATOR_MIN_INTERVAL" envDefault:"10s"`
	SimulatorMaxInterval time.Duration `env:"SIMULATOR_MAX_INTERVAL" envDefault:"30s"`
	LocationPollInterval time.Duration `env:"LOCATION_POLL_INTERVAL" envDefault:"30s"`
	ResponderStaleAfter  time.Duration `env:"RESPONDER_STALE_AFTER" envDefault:"10m"`
	ResponderSweepSpec   string        `env:"RESPONDER_SWEEP_SPEC" envDefault:"@every 1m"`
	ChatReplyDelay       time.Duration `env:"CHAT_REPLY_DELAY" envDefault:"2s"`
	NotificationsDisplay bool          `env:"NOTIFICATIONS_DISPLAY" envDefault:"true"`

	// CORS
	CORSOrigins []string `env:"CORS_ORIGINS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		IncidentStore:        getEnv("INCIDENT_STORE", StoreMemory),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DBMaxConns:           getEnvAsInt("DB_MAX_CONNS", 10),
		MigrationsPath:       getEnv("MIGRATIONS_PATH", "file://migrations"),
		SeedIncidents:        getEnvAsBool("SEED_INCIDENTS", true),
		StateStore:           getEnv("STATE_STORE", StoreMemory),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		RedisPoolSize:        getEnvAsInt("REDIS_POOL_SIZE", 10),
		WebhookURL:           os.Getenv("WEBHOOK_URL"),
		WebhookSecret:        os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:       getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:    getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:     getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		JWTSecret:            getEnv("JWT_SECRET", "resq-dev-secret"),
		StatusPolicy:         getEnv("STATUS_POLICY", "any"),
		SimulatorEnabled:     getEnvAsBool("SIMULATOR_ENABLED", true),
		SimulatorMinInterval: getEnvAsDuration("SIMULATOR_MIN_INTERVAL", 10*time.Second),
		SimulatorMaxInterval: getEnvAsDuration("SIMULATOR_MAX_INTERVAL", 30*time.Second),
		LocationPollInterval: getEnvAsDuration("LOCATION_POLL_INTERVAL", 30*time.Second),
		ResponderStaleAfter:  getEnvAsDuration("RESPONDER_STALE_AFTER", 10*time.Minute),
		ResponderSweepSpec:   getEnv("RESPONDER_SWEEP_SPEC", "@every 1m"),
		ChatReplyDelay:       getEnvAsDuration("CHAT_REPLY_DELAY", 2*time.Second),
		NotificationsDisplay: getEnvAsBool("NOTIFICATIONS_DISPLAY", true),
	}

	// Загрузка разрешенных источников CORS
	if originsStr := os.Getenv("CORS_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.IncidentStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required when INCIDENT_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown INCIDENT_STORE %q", c.IncidentStore)
	}

	switch c.StateStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown STATE_STORE %q", c.StateStore)
	}

	if c.SimulatorMaxInterval < c.SimulatorMinInterval {
		return fmt.Errorf("SIMULATOR_MAX_INTERVAL must not be less than SIMULATOR_MIN_INTERVAL")
	}
	return nil
}

// NeedsRedis сообщает, нужен ли клиент Redis хотя бы одному компоненту
func (c *Config) NeedsRedis() bool {
	return c.StateStore == StoreRedis || c.IncidentStore == StorePostgres || c.WebhookURL != ""
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool возвращает значение переменной окружения как bool или значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

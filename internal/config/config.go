package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file - ignore error if file doesn't exist
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Note: .env file not found or could not be loaded: %v\n", err)
	}
}

type Config struct {
	Primary       PrimaryConfig
	Database      DatabaseConfig
	Server        ServerConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Observability *ObservabilityConfig
	Daraja        DarajaConfig
}

type PrimaryConfig struct {
	Env string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	IdleTimeout        int
	CORSAllowedOrigins []string

	// PublicBaseURL is the externally reachable origin used to derive the
	// validation/confirmation webhook URLs handed to Daraja.
	PublicBaseURL string

	// TrustProxyHeaders controls whether X-Forwarded-For is honoured when
	// recording the source IP of incoming webhooks.
	TrustProxyHeaders bool

	// WebhookRateLimit caps webhook requests per shortcode per window.
	WebhookRateLimit       int64
	WebhookRateLimitWindow time.Duration
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
	KeyPrefix    string
}

type KafkaConfig struct {
	Brokers []string
}

type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	Logging      LoggingConfig
	NewRelic     NewRelicConfig
	HealthChecks HealthChecksConfig
}

type LoggingConfig struct {
	Level              string
	Format             string
	SlowQueryThreshold time.Duration
}

type NewRelicConfig struct {
	LicenseKey                string
	AppLogForwardingEnabled   bool
	DistributedTracingEnabled bool
	DebugLogging              bool
}

type HealthChecksConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
	Checks   []string
}

type DarajaConfig struct {
	// BaseURL points at the sandbox by default; production deployments
	// override it with https://api.safaricom.co.ke/.
	BaseURL string
	Timeout time.Duration
}

// Helper functions for parsing env vars
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}

func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level == "" {
		switch c.Environment {
		case "production":
			return "info"
		case "development":
			return "debug"
		default:
			return "info"
		}
	}
	return c.Logging.Level
}

func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Primary: PrimaryConfig{
			Env: getEnv("C2B_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("C2B_DB_HOST", "localhost"),
			Port:            getEnvInt("C2B_DB_PORT", 5432),
			User:            getEnv("C2B_DB_USER", "c2b"),
			Password:        getEnv("C2B_DB_PASSWORD", ""),
			Name:            getEnv("C2B_DB_NAME", "c2b"),
			SSLMode:         getEnv("C2B_DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("C2B_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("C2B_DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvInt("C2B_DB_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("C2B_DB_CONN_MAX_IDLE_TIME", 60),
		},
		Server: ServerConfig{
			Port:                   getEnv("C2B_SERVER_PORT", "8080"),
			ReadTimeout:            getEnvInt("C2B_SERVER_READ_TIMEOUT", 30),
			WriteTimeout:           getEnvInt("C2B_SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:            getEnvInt("C2B_SERVER_IDLE_TIMEOUT", 60),
			CORSAllowedOrigins:     getEnvSlice("C2B_SERVER_CORS_ORIGINS", []string{"*"}),
			PublicBaseURL:          getEnv("C2B_PUBLIC_BASE_URL", "http://localhost:8080"),
			TrustProxyHeaders:      getEnvBool("C2B_TRUST_PROXY_HEADERS", false),
			WebhookRateLimit:       getEnvInt64("C2B_WEBHOOK_RATE_LIMIT", 60),
			WebhookRateLimitWindow: getEnvDuration("C2B_WEBHOOK_RATE_LIMIT_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			Address:      getEnv("C2B_REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnv("C2B_REDIS_PASSWORD", ""),
			DB:           getEnvInt("C2B_REDIS_DB", 0),
			PoolSize:     getEnvInt("C2B_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("C2B_REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvDuration("C2B_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("C2B_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("C2B_REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      getEnvDuration("C2B_REDIS_LOCK_TTL", 30*time.Second),
			KeyPrefix:    getEnv("C2B_REDIS_KEY_PREFIX", "c2b:"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("C2B_KAFKA_BROKERS", []string{"localhost:9092"}),
		},
		Observability: &ObservabilityConfig{
			ServiceName: "c2b-console",
			Environment: getEnv("C2B_ENV", "development"),
			Logging: LoggingConfig{
				Level:              getEnv("C2B_LOG_LEVEL", "debug"),
				Format:             getEnv("C2B_LOG_FORMAT", "console"),
				SlowQueryThreshold: getEnvDuration("C2B_LOG_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			},
			NewRelic: NewRelicConfig{
				LicenseKey:                getEnv("C2B_NEWRELIC_LICENSE_KEY", ""),
				AppLogForwardingEnabled:   getEnvBool("C2B_NEWRELIC_LOG_FORWARDING", true),
				DistributedTracingEnabled: getEnvBool("C2B_NEWRELIC_DISTRIBUTED_TRACING", true),
				DebugLogging:              getEnvBool("C2B_NEWRELIC_DEBUG", false),
			},
			HealthChecks: HealthChecksConfig{
				Enabled:  getEnvBool("C2B_HEALTHCHECK_ENABLED", true),
				Interval: getEnvDuration("C2B_HEALTHCHECK_INTERVAL", 30*time.Second),
				Timeout:  getEnvDuration("C2B_HEALTHCHECK_TIMEOUT", 5*time.Second),
				Checks:   getEnvSlice("C2B_HEALTHCHECK_CHECKS", []string{"database", "redis"}),
			},
		},
		Daraja: DarajaConfig{
			BaseURL: getEnv("C2B_DARAJA_BASE_URL", "https://sandbox.safaricom.co.ke/"),
			Timeout: getEnvDuration("C2B_DARAJA_TIMEOUT", 30*time.Second),
		},
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("C2B_DB_HOST is required")
	}
	if cfg.Database.Name == "" {
		return nil, fmt.Errorf("C2B_DB_NAME is required")
	}
	if cfg.Server.PublicBaseURL == "" {
		return nil, fmt.Errorf("C2B_PUBLIC_BASE_URL is required")
	}

	return cfg, nil
}

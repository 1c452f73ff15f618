package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Classifier   ClassifierConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigins           string
}

// DatabaseConfig selects and tunes the relational backend.
type DatabaseConfig struct {
	Driver         string
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values for the push channel.
type RedisConfig struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// ClassifierConfig locates the trained model.
type ClassifierConfig struct {
	ModelPath      string
	URL            string
	TimeoutSeconds int
}

// NotificationConfig sizes the real-time push worker pool.
type NotificationConfig struct {
	Workers                int
	QueueSize              int
	PushTimeoutSeconds     int
	StreamHeartbeatSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite))
	dsn := os.Getenv("DATABASE_DSN")
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "helpdesk.db"
		}
	case DriverPostgres, DriverMySQL:
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %q", driver)
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("HTTP_CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Driver:         driver,
			DSN:            dsn,
			MaxConns:       int32(getEnvAsInt("DATABASE_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("DATABASE_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("DATABASE_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("DATABASE_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("DATABASE_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Enabled:       getEnvAsBool("REDIS_ENABLED", false),
			Addr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "helpdesk"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Classifier: ClassifierConfig{
			ModelPath:      os.Getenv("CLASSIFIER_MODEL_PATH"),
			URL:            os.Getenv("CLASSIFIER_URL"),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 5),
		},
		Notification: NotificationConfig{
			Workers:                getEnvAsInt("NOTIFY_WORKERS", 2),
			QueueSize:              getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			PushTimeoutSeconds:     getEnvAsInt("NOTIFY_PUSH_TIMEOUT_SECONDS", 3),
			StreamHeartbeatSeconds: getEnvAsInt("NOTIFY_STREAM_HEARTBEAT_SECONDS", 25),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-prediction timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

// PushTimeout returns the per-delivery timeout for real-time pushes.
func (n NotificationConfig) PushTimeout() time.Duration {
	return seconds(n.PushTimeoutSeconds)
}

// StreamHeartbeat returns the keep-alive interval of the technician stream.
func (n NotificationConfig) StreamHeartbeat() time.Duration {
	return seconds(n.StreamHeartbeatSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

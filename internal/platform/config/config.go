package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	liststr "helpinghands/pkg/platform/strings"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Store    StoreConfig
	AI       AIConfig
	Redis    RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	AdminToken         string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// StoreConfig selects and locates the persistent store.
type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	PostgresURL   string
	ConnTimeout   time.Duration
}

// AIConfig configures the text-generation client.
type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// RedisConfig configures the optional notification pub/sub sink.
// An empty URL disables it.
type RedisConfig struct {
	URL           string
	NotifyChannel string
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// KafkaConfig configures the optional notification topic sink.
// No brokers disables it.
type KafkaConfig struct {
	Brokers     []string
	NotifyTopic string
}

// RateLimitConfig bounds per-client traffic on the AI-backed endpoints.
// Limits are shared through Redis when it is configured.
type RateLimitConfig struct {
	Disabled        bool
	AlertsPerWindow int
	AIPerWindow     int
	Window          time.Duration
}

// ErrMissingAPIKey is returned when GEMINI_API_KEY is unset.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY must be set")

// FromEnv builds a Config from environment variables so main stays lean.
// It fails fast when the AI credential is absent.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:               getEnv("ADDR", ":3000"),
			AdminToken:         os.Getenv("ADMIN_TOKEN"),
			CORSAllowedOrigins: liststr.SplitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			ShutdownTimeout:    10 * time.Second,
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
			MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGODB_DATABASE", "helpinghands"),
			PostgresURL:   os.Getenv("DATABASE_URL"),
			ConnTimeout:   10 * time.Second,
		},
		AI: AIConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			NotifyChannel: getEnv("REDIS_NOTIFY_CHANNEL", "helpinghands:notifications"),
		},
		Kafka: KafkaConfig{
			Brokers:     liststr.SplitList(os.Getenv("KAFKA_BROKERS")),
			NotifyTopic: getEnv("KAFKA_NOTIFY_TOPIC", "donor-notifications"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.AI.Timeout, err = getDuration("AI_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.Redis.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.RateLimit.Disabled, err = getBool("RATE_LIMIT_DISABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.AlertsPerWindow, err = getInt("RATE_LIMIT_ALERTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.AIPerWindow, err = getInt("RATE_LIMIT_AI", 10); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Window, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.AI.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.Store.Driver {
	case StoreMemory, StoreMongo:
	case StorePostgres:
		if c.Store.PostgresURL == "" {
			return errors.New("DATABASE_URL must be set when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if !c.RateLimit.Disabled && c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

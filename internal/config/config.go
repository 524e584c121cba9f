package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Version     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Auth        AuthConfig
	Sessions    SessionConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
	TrustProxy   bool
}

// DatabaseConfig describes the credential store. URL is the endpoint; the
// public and service keys are the passwords of the two database roles.
type DatabaseConfig struct {
	URL             string
	PublicUser      string
	PublicKey       string
	ServiceUser     string
	ServiceKey      string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled bool
	// Store is "redis" or "bolt".
	Store    string
	Max      int
	Window   time.Duration
	BoltPath string
}

type AuthConfig struct {
	BcryptCost          int
	VersionRequiresAuth bool
}

type SessionConfig struct {
	SweepInterval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env),
// applies defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "session-gateway"),
		Version:     getString("APP_VERSION", "1.0.0"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "3000"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
			TrustProxy:   getBool("SERVER_TRUST_PROXY", false),
		},
		Database: DatabaseConfig{
			URL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
			PublicUser:      getString("DB_PUBLIC_USER", "anon"),
			PublicKey:       os.Getenv("DB_PUBLIC_KEY"),
			ServiceUser:     getString("DB_SERVICE_USER", "service_role"),
			ServiceKey:      os.Getenv("DB_SERVICE_KEY"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBool("RATE_LIMIT_ENABLED", true),
			Store:    strings.ToLower(getString("RATE_LIMIT_STORE", "bolt")),
			Max:      getInt("RATE_LIMIT_MAX", 100),
			Window:   getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			BoltPath: getString("RATE_LIMIT_BOLT_PATH", "./data/ratelimit.db"),
		},
		Auth: AuthConfig{
			BcryptCost:          getInt("BCRYPT_COST", 10),
			VersionRequiresAuth: getBool("VERSION_REQUIRES_AUTH", false),
		},
		Sessions: SessionConfig{
			SweepInterval: getDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
// The process must not start without the store endpoint and both keys.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Database.PublicKey == "" {
		errs = append(errs, errors.New("DB_PUBLIC_KEY is required"))
	}
	if c.Database.ServiceKey == "" {
		errs = append(errs, errors.New("DB_SERVICE_KEY is required"))
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Store {
		case "redis":
			if c.Redis.URL == "" {
				errs = append(errs, errors.New("REDIS_URL is required when RATE_LIMIT_STORE=redis"))
			}
		case "bolt":
		default:
			errs = append(errs, fmt.Errorf("unsupported RATE_LIMIT_STORE %q", c.RateLimit.Store))
		}
		if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
		}
	}
	return errors.Join(errs...)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

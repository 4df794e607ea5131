package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	// devJWTSecret is only accepted when the memory store is selected.
	devJWTSecret = "tripshare-dev-secret"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string

	ServerPort string

	JWTSecret string

	AccessTokenMaxAge  int
	RefreshTokenMaxAge int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	LoginRateLimit         int
	LoginRateWindowSeconds int

	WorkerCount int
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:      envOr("APP_ENV", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(envOr("STORE_DRIVER", StoreDriverPostgres)),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  envOr("DB_SSLMODE", "require"),

		RedisURL: os.Getenv("REDIS_URL"),

		ServerPort: envOr("SERVER_PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenMaxAge:  positiveInt("ACCESS_TOKEN_MAX_AGE", 900),
		RefreshTokenMaxAge: positiveInt("REFRESH_TOKEN_MAX_AGE", 2592000),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		LoginRateLimit:         positiveInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindowSeconds: positiveInt("LOGIN_RATE_WINDOW_SECONDS", 60),

		WorkerCount: positiveInt("WORKER_COUNT", 2),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, errors.New("STORE_DRIVER must be either postgres or memory")
	}

	if cfg.JWTSecret == "" {
		if cfg.StoreDriver != StoreDriverMemory {
			return nil, errors.New("JWT_SECRET is required")
		}
		log.Warn().Msg("JWT_SECRET not set, using development secret for the memory store")
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// MediaEnabled reports whether all R2 settings are present.
func (c *Config) MediaEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	envcfg "github.com/Skotchmaster/shirin_shop/pkg/config"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret      []byte
	AccessTokenTTL time.Duration

	AdminUsername string
	AdminPassword string

	CORSOrigins []string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr     string
	RedisPassword string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// LoadDotEnv reads .env when present. A missing file is not an error.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv_load", "status", "fail", "path", path, "error", err)
	}
}

// Load reads the process environment. JWT_SECRET and DATABASE_URL are required.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: envcfg.EnvDefault("SERVICE_NAME", "shop"),
		ServerPort:  envcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    envcfg.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    envcfg.EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		JWTSecret:      []byte(strings.TrimSpace(os.Getenv("JWT_SECRET"))),
		AccessTokenTTL: envcfg.EnvDuration("ACCESS_TOKEN_EXPIRE_MINUTES", time.Minute, 30),

		AdminUsername: envcfg.EnvDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		CORSOrigins: envcfg.CSV(envcfg.EnvDefault("CORS_ORIGINS", "*")),

		KafkaBrokers: envcfg.CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    envcfg.EnvDefault("ES_INDEX", "products"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LoginRateLimit:  envcfg.EnvIntDefault("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: envcfg.EnvDuration("LOGIN_RATE_WINDOW_SECONDS", time.Second, 60),
	}

	if err := envcfg.Required("JWT_SECRET", "DATABASE_URL"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

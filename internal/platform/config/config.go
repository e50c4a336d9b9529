// Package config loads application settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const EnvDevelopment = "development"

type Config struct {
	Server   ServerConfig
	JWT      JWTConfig
	Password PasswordConfig
	Redis    RedisConfig
	S3       S3Config
	Log      LogConfig
}

type ServerConfig struct {
	Addr string
	Env  string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type PasswordConfig struct {
	BcryptCost int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	CacheTTL time.Duration
}

// Enabled はRedisの接続先が設定されているかを返します。
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr はhost:port形式のアドレスを返します。
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Timeout      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env when present and then the process environment.
// JWT_SECRET is mandatory unless APP_ENV=development, where a random
// per-process secret is generated instead.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not found; using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
			Env:  getEnv("APP_ENV", "production"),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			CacheTTL: getEnvAsDuration("USER_CACHE_TTL", 5*time.Minute),
		},
		S3: S3Config{
			Bucket:       os.Getenv("AWS_S3_BUCKET"),
			Region:       getEnv("AWS_REGION", "us-east-1"),
			BaseEndpoint: os.Getenv("AWS_S3_ENDPOINT"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Timeout:      getEnvAsDuration("AWS_S3_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.JWT.Secret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", cfg.Server.Env)
		}
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		slog.Warn("JWT_SECRET is not set. Using a random secret; tokens will not survive restarts.")
		cfg.JWT.Secret = secret
	}

	return cfg, nil
}

// IsDevelopment は開発環境で動作しているかを返します。
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == EnvDevelopment
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

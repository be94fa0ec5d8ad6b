package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	MongoURI string
	MongoDB  string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GithubClientID     string
	GithubClientSecret string

	AllowedOrigins []string

	OTLPEndpoint string
}

func Load() Config {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		MongoURI: getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getEnv("MONGO_DB", "devconnect"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 10*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GithubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GithubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", nil),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}

	return nil
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}

		return num
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}

		return d
	}

	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

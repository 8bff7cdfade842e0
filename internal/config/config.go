package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

type RateLimitConfig struct {
	Window time.Duration
	Max    int
}

type Config struct {
	DBURL       string
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	Environment string
	LogFormat   string
	RateLimit   RateLimitConfig
	CorsConfig  cors.Options
}

// Load reads the env file (if present) and resolves configuration from the
// environment. The result is passed down explicitly; nothing here holds
// process-global state.
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	return Config{
		DBURL:       getEnv("DB_URL", ""),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "not-so-secret-now-is-it?"),
		TokenTTL:    getDuration("TOKEN_TTL", 5*24*time.Hour),
		Environment: getEnv("ENV", "development"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		RateLimit: RateLimitConfig{
			Window: getDuration("RATE_LIMIT_WINDOW", 5*time.Minute),
			Max:    getInt("RATE_LIMIT_MAX", 100),
		},
		CorsConfig: CorsConfig(),
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}

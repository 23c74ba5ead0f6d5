package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "default-secret"

type Config struct {
	AppEnv  string
	AppPort string
	AppURL  string

	DBDriver       string
	DatabaseURL    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret         string
	JWTExpiration     time.Duration
	SessionCookieName string
	CookieSecure      bool

	CORSAllowedOrigins []string

	TMDBAPIKey          string
	TMDBBaseURL         string
	TMDBImageBaseURL    string
	TMDBBackdropBaseURL string
	TMDBTimeout         time.Duration
	TMDBRateLimit       float64
	TMDBRateBurst       int

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	ResetTokenTTL         time.Duration
	ResetRateLimitPerHour int
}

// LoadConfig loads the configuration and exits the process if it is invalid.
func LoadConfig() *Config {
	// Try to load .env file but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),
		AppURL:  strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "streamsphere"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "streamsphere_session"),
		CookieSecure:      getEnv("COOKIE_SECURE", "false") == "true",

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		TMDBAPIKey:          os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL:         strings.TrimRight(getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
		TMDBImageBaseURL:    strings.TrimRight(getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"), "/"),
		TMDBBackdropBaseURL: strings.TrimRight(getEnv("TMDB_BACKDROP_BASE_URL", "https://image.tmdb.org/t/p/original"), "/"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getEnv("EMAIL_FROM", "no-reply@streamsphere.local"),
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "pgx" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be postgres or pgx", cfg.DBDriver)
	}

	if cfg.AppEnv == "production" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	var err error
	if cfg.JWTExpiration, err = getEnvDuration("JWT_EXPIRATION", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TMDBTimeout, err = getEnvDuration("TMDB_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = getEnvDuration("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.TMDBRateBurst, err = getEnvInt("TMDB_RATE_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.ResetRateLimitPerHour, err = getEnvInt("RESET_RATE_LIMIT_PER_HOUR", 5); err != nil {
		return nil, err
	}

	rateLimit := getEnv("TMDB_RATE_LIMIT", "20")
	cfg.TMDBRateLimit, err = strconv.ParseFloat(rateLimit, 64)
	if err != nil || cfg.TMDBRateLimit <= 0 {
		return nil, fmt.Errorf("invalid TMDB_RATE_LIMIT %q: must be a positive number", rateLimit)
	}

	if cfg.TMDBAPIKey == "" {
		log.Println("Warning: TMDB_API_KEY is not set, external catalog requests will fail")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format %q. Use format like '24h'", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimRight(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}

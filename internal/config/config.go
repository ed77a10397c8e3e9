package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Upstream image provider
	OpenAIAPIKey  string
	OpenAIBaseURL string
	FrameStrategy string // "single" | "distinct"

	// Gemini prompt enhancer (optional)
	GeminiAPIKey string

	// Simulated processing delays
	GenerationDelay time.Duration
	AnalysisDelay   time.Duration

	// Storage
	StoragePath string

	// Operator account
	AdminEmail    string
	AdminPassword string

	// Signup notifications
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SMTPFrom    string
	NotifyEmail string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		OpenAIAPIKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		FrameStrategy: getEnvOrDefault("FRAME_STRATEGY", "single"),

		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),

		GenerationDelay: getEnvAsDurationMs("GENERATION_DELAY_MS", 3000),
		AnalysisDelay:   getEnvAsDurationMs("ANALYSIS_DELAY_MS", 2500),

		StoragePath: getEnvOrDefault("STORAGE_PATH", "./uploads"),

		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", "vienna@example.com"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "admin"),

		SMTPHost:    getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:    getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:    getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:    getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:    getEnvOrDefault("SMTP_FROM", "noreply@radiant.app"),
		NotifyEmail: getEnvOrDefault("NOTIFY_EMAIL", ""),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationMs(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvAsIntOrDefault(key, defaultMs)) * time.Millisecond
}

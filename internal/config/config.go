package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Auth  AuthConfig
	Blob  BlobConfig
	Chat  ChatConfig
	SMTP  SMTPConfig
	Redis RedisConfig
}

type AppConfig struct {
	Port        string
	Environment string
	DataDir     string
	LogFilePath string
	Version     string
}

type AuthConfig struct {
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	SessionTTL        time.Duration
	SecureCookie      bool
}

type BlobConfig struct {
	Backend       string // "sqlite" or "s3"
	Bucket        string
	AccountID     string // Cloudflare R2 account, used to derive the endpoint
	Endpoint      string // overrides the R2 endpoint for other S3-compatible stores
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type ChatConfig struct {
	APIKey     string
	Model      string
	RatePerSec float64
	Burst      int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ToEmail  string
}

type RedisConfig struct {
	URL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
			DataDir:     getEnv("DATA_DIR", "./data"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/portfolio.log"),
		},
		Auth: AuthConfig{
			AdminEmail:        getEnv("ADMIN_EMAIL", "saikiranavusula89@gmail.com"),
			AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			SecureCookie:      getEnvAsBool("SECURE_COOKIE", false),
		},
		Blob: BlobConfig{
			Backend:       getEnv("BLOB_BACKEND", "sqlite"),
			Bucket:        getEnv("R2_BUCKET", ""),
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			Region:        getEnv("S3_REGION", "auto"),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			PublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", ""),
		},
		Chat: ChatConfig{
			APIKey:     getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			RatePerSec: getEnvAsFloat("CHAT_RATE_PER_SEC", 1),
			Burst:      getEnvAsInt("CHAT_BURST", 5),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			ToEmail:  getEnv("TO_EMAIL", "saikiranavusula89@gmail.com"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

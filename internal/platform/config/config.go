package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DatabaseURL      string
	JWTSecret        string
	AppID            string
	Environment      string
	InitialAuthToken string
	UploadDir        string
	FilesBaseURL     string
	SessionTTL       time.Duration
	AlertTTL         time.Duration
	EmailFrom        string
	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPUseTLS       bool
	SeedAdminEmail   string
	SeedAdminName    string
	SeedAdminPass    string
	RunSchema        bool
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:             getEnv("APP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AppID:            getEnv("APP_ID", "default-app-id"),
		Environment:      getEnv("APP_ENV", "development"),
		InitialAuthToken: getEnv("INITIAL_AUTH_TOKEN", ""),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		FilesBaseURL:     getEnv("FILES_BASE_URL", "/files"),
		SessionTTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
		AlertTTL:         getEnvDuration("ALERT_TTL", 5*time.Second),
		EmailFrom:        getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:     getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:       getEnvBool("SMTP_USE_TLS", true),
		SeedAdminEmail:   getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminName:    getEnv("SEED_ADMIN_NAME", "Portal Admin"),
		SeedAdminPass:    getEnv("SEED_ADMIN_PASSWORD", ""),
		RunSchema:        getEnvBool("RUN_SCHEMA", true),
	}
}

// Collection resolves a logical collection name inside the application
// namespace, mirroring the apps/{appId}/... document layout.
func (c Config) Collection(name string) string {
	return "apps/" + c.AppID + "/" + name
}

func (c Config) UsersCollection() string         { return c.Collection("users") }
func (c Config) AnnouncementsCollection() string { return c.Collection("announcements") }
func (c Config) PaymentsCollection() string      { return c.Collection("payments") }

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("APP_ID must not be empty")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

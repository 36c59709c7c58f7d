package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port     string
	BaseURL  string
	MongoURI string
	DBName   string

	AdminAPIKey string
	JWTSecret   string

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	S3PublicURL   string

	ResendAPIKey     string
	FromEmail        string
	AdminEmail       string
	ResendAudienceID string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	MaxUploadMB int64
}

func Load() (*Config, error) {
	maxMB := int64(50)
	if v := getEnv("MAX_UPLOAD_MB", "50"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	smtpPort := 587
	if v := getEnv("SMTP_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			smtpPort = n
		}
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("MONGODB_DB", "exit-wounds"),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		JWTSecret:   getEnv("JWT_SECRET", "change-me-in-production"),

		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3PublicURL:   getEnv("S3_PUBLIC_URL", ""),

		ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
		FromEmail:        getEnv("FROM_EMAIL", "marco@exit-wounds.com"),
		AdminEmail:       getEnv("ADMIN_EMAIL", ""),
		ResendAudienceID: getEnv("RESEND_AUDIENCE_ID", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MaxUploadMB: maxMB,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RequiredEnvVars are checked at startup; app exits if any are unset.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"MONGODB_DB",
	"ADMIN_API_KEY",
	"JWT_SECRET",
	"BASE_URL",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"RESEND_API_KEY",
	"RESEND_AUDIENCE_ID",
	"FROM_EMAIL",
	"ADMIN_EMAIL",
	"S3_PUBLIC_URL",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USERNAME",
	"SMTP_PASSWORD",
	"MAX_UPLOAD_MB",
}

var secretEnvVars = map[string]bool{
	"ADMIN_API_KEY":         true,
	"JWT_SECRET":            true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SECRET_ACCESS_KEY": true,
	"RESEND_API_KEY":        true,
	"SMTP_PASSWORD":         true,
}

// ValidateEnv checks that all required env vars are set and logs status of
// required + optional. Calls log.Fatal if any required var is missing.
func ValidateEnv() {
	var missing []string
	for _, key := range RequiredEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		} else {
			log.Printf("env %s loaded", key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			log.Printf("env %s not set (optional)", key)
			continue
		}
		if secretEnvVars[key] {
			log.Printf("env %s loaded", key)
		} else {
			log.Printf("env %s = %s", key, v)
		}
	}
	if j := os.Getenv("JWT_SECRET"); j == "change-me-in-production" {
		log.Fatal("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
	if os.Getenv("RESEND_API_KEY") == "" && os.Getenv("SMTP_HOST") == "" {
		log.Fatal("either RESEND_API_KEY or SMTP_HOST must be set, or no mail leaves this server")
	}
	fmt.Println("env check complete")
}

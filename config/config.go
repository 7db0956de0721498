package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	MySQLDSN     string
	MySQLMaxOpen int
	MySQLMaxIdle int
	MySQLMaxLife time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// EmailTransport selects the delivery backend: ses, sesv2, or noop.
	EmailTransport string
	SourceEmail    string

	AWSRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string
	SESSessionToken    string
	SESServiceURL      string
	SESEndpoint        string
	SESMaxAttempts     int

	// Legacy credential names older deployments still set. The SES_* values
	// win when both are present.
	AWSAccessKeyID   string
	AWSSecretKey     string
	AWSSecurityToken string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/mailer?parseTime=true"),
		MySQLMaxOpen: getEnvInt("MYSQL_MAX_OPEN_CONNS", 10),
		MySQLMaxIdle: getEnvInt("MYSQL_MAX_IDLE_CONNS", 5),
		MySQLMaxLife: getEnvDuration("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EmailTransport: getEnv("EMAIL_TRANSPORT", "ses"),
		SourceEmail:    getEnv("SES_SOURCE_EMAIL", ""),

		AWSRegion:          getEnv("AWS_REGION", ""),
		SESAccessKeyID:     getEnv("SES_ACCESS_KEY_ID", ""),
		SESSecretAccessKey: getEnv("SES_SECRET_ACCESS_KEY", ""),
		SESSessionToken:    getEnv("SES_SESSION_TOKEN", ""),
		SESServiceURL:      getEnv("SES_SERVICE_URL", ""),
		SESEndpoint:        getEnv("SES_ENDPOINT", ""),
		SESMaxAttempts:     getEnvInt("SES_MAX_ATTEMPTS", 0),

		AWSAccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_KEY", ""),
		AWSSecurityToken: getEnv("AWS_SECURITY_TOKEN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// BackendConfig points at the lending REST API the dashboard fronts.
type BackendConfig struct {
	BaseURL    string
	TimeoutSec int
	// ServiceToken authenticates server-side calls that are not made on behalf
	// of a browser session (the WhatsApp socket and its initial status load).
	ServiceToken string
}

// SessionConfig controls the auth cookie and the per-session cache.
type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	CacheTTLSec  int
}

// WhatsAppConfig controls the WhatsApp event socket.
type WhatsAppConfig struct {
	Enabled              bool
	SocketPath           string
	MaxReconnectAttempts int
	ReconnectDelayMs     int
}

// ReportsConfig controls report exports.
type ReportsConfig struct {
	PresignExpirySec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Backend  BackendConfig
	Session  SessionConfig
	WhatsApp WhatsAppConfig
	Reports  ReportsConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Backend: BackendConfig{
			BaseURL:      getEnv("API_BASE_URL", "http://localhost:3000"),
			TimeoutSec:   getEnvInt("API_TIMEOUT_SEC", 15),
			ServiceToken: getEnv("API_SERVICE_TOKEN", ""),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE_NAME", "token"),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
			CacheTTLSec:  getEnvInt("SESSION_CACHE_TTL_SEC", 3600),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:              getEnvBool("WHATSAPP_ENABLED", true),
			SocketPath:           getEnv("WHATSAPP_SOCKET_PATH", "/ws"),
			MaxReconnectAttempts: getEnvInt("WHATSAPP_MAX_RECONNECT_ATTEMPTS", 5),
			ReconnectDelayMs:     getEnvInt("WHATSAPP_RECONNECT_DELAY_MS", 2000),
		},
		Reports: ReportsConfig{
			PresignExpirySec: getEnvInt("REPORTS_PRESIGN_EXPIRY_SEC", 900),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Timeout returns the per-request timeout for backend calls.
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ReconnectDelay returns the fixed wait between socket reconnect attempts.
func (c WhatsAppConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

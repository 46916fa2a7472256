// Package config loads application configuration from the environment,
// with .env file support for local development.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Drive     DriveConfig
	Zoho      ZohoConfig
	Import    ImportConfig
	Customer  CustomerConfig
	Notify    NotifyConfig
	Dashboard DashboardConfig
	Sync      SyncConfig
	LogLevel  string
}

type DriveConfig struct {
	FolderID           string
	ServiceAccountFile string
}

type ZohoConfig struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	OrganizationID    string
	CustomerID        string
	TokenFile         string
	EncryptionKey     string
	RequestsPerMinute int
}

type ImportConfig struct {
	// ExcelHeaderRow is the zero-based row the column headers live on.
	ExcelHeaderRow int
}

type CustomerConfig struct {
	// FuzzyThreshold is the minimum 0-100 match score for resolving an
	// extracted customer name to a Zoho contact.
	FuzzyThreshold int
}

type NotifyConfig struct {
	ResendAPIKey string
	FromEmail    string
	ToEmails     []string
}

type DashboardConfig struct {
	Host           string
	Port           int
	MetricsEnabled bool
}

type SyncConfig struct {
	// Schedule is a cron expression for daemon mode.
	Schedule string
	// DatabasePath is the SQLite file tracking processed files and runs.
	DatabasePath string
	// MoveProcessed controls whether handled files are moved to the
	// processed subfolder in Drive.
	MoveProcessed bool
}

// Load reads configuration from environment variables, loading a .env
// file first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Drive: DriveConfig{
			FolderID:           getEnv("DRIVE_FOLDER_ID", ""),
			ServiceAccountFile: getEnv("DRIVE_SERVICE_ACCOUNT_FILE", "service_account.json"),
		},
		Zoho: ZohoConfig{
			ClientID:          getEnv("ZOHO_CLIENT_ID", ""),
			ClientSecret:      getEnv("ZOHO_CLIENT_SECRET", ""),
			RedirectURL:       getEnv("ZOHO_REDIRECT_URL", "https://www.zoho.com/books"),
			OrganizationID:    getEnv("ZOHO_ORGANIZATION_ID", ""),
			CustomerID:        getEnv("ZOHO_CUSTOMER_ID", ""),
			TokenFile:         getEnv("ZOHO_TOKEN_FILE", "zoho_token.json"),
			EncryptionKey:     getEnv("ZOHO_TOKEN_ENCRYPTION_KEY", ""),
			RequestsPerMinute: getEnvAsInt("ZOHO_REQUESTS_PER_MINUTE", 60),
		},
		Import: ImportConfig{
			ExcelHeaderRow: getEnvAsInt("EXCEL_HEADER_ROW", 1),
		},
		Customer: CustomerConfig{
			FuzzyThreshold: getEnvAsInt("CUSTOMER_MATCH_THRESHOLD", 70),
		},
		Notify: NotifyConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("NOTIFICATION_EMAIL_FROM", "Houzz Sync <sync@faitltd.com>"),
			ToEmails:     getEnvAsSlice("NOTIFICATION_EMAIL_TO"),
		},
		Dashboard: DashboardConfig{
			Host:           getEnv("DASHBOARD_HOST", "localhost"),
			Port:           getEnvAsInt("DASHBOARD_PORT", 8080),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Sync: SyncConfig{
			Schedule:      getEnv("SYNC_SCHEDULE", "0 * * * *"),
			DatabasePath:  getEnv("SYNC_DATABASE_PATH", "houzz_to_zoho.db"),
			MoveProcessed: getEnvAsBool("SYNC_MOVE_PROCESSED", true),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Zoho.ClientID == "" {
		return nil, errors.New("ZOHO_CLIENT_ID is required")
	}
	if cfg.Zoho.ClientSecret == "" {
		return nil, errors.New("ZOHO_CLIENT_SECRET is required")
	}
	if cfg.Zoho.OrganizationID == "" {
		return nil, errors.New("ZOHO_ORGANIZATION_ID is required")
	}
	if cfg.Drive.FolderID == "" {
		return nil, errors.New("DRIVE_FOLDER_ID is required")
	}
	if cfg.Zoho.EncryptionKey == "" {
		return nil, errors.New("ZOHO_TOKEN_ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

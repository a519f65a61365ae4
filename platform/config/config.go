// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetAdminEmail() string
	GetAdminPasswordHash() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the Redis key-value store.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetLeadsStoreKey() string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSheetSyncInterval() time.Duration
}

// SheetConfig provides settings for the spreadsheet importer.
type SheetConfig interface {
	GetSheetID() string
	GetSheetBaseURL() string
	GetSheetMappingFile() string
}

// CapiConfig provides settings for the conversion API publisher.
type CapiConfig interface {
	GetCapiEndpoint() string
	GetCapiPixelID() string
	GetCapiAccessToken() string
	GetCapiTestEventCode() string
	GetCapiCurrency() string
	GetCapiCountryPrefix() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketCSVArchive() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	JWTAccessSecret     string
	AccessTokenTTL      time.Duration
	AdminEmail          string
	AdminPasswordHash   string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	RedisTLSInsecure    bool
	LeadsStoreKey       string
	AsynqQueueName      string
	AsynqConcurrency    int
	SheetSyncInterval   time.Duration
	SheetID             string
	SheetBaseURL        string
	SheetMappingFile    string
	CapiEndpoint        string
	CapiPixelID         string
	CapiAccessToken     string
	CapiTestEventCode   string
	CapiCurrency        string
	CapiCountryPrefix   string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOMaxFileSize    int64
	MinioBucketCSVArchive string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) GetAdminEmail() string            { return c.AdminEmail }
func (c *Config) GetAdminPasswordHash() string     { return c.AdminPasswordHash }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetLeadsStoreKey() string {
	if c.LeadsStoreKey == "" {
		return "leads:all"
	}
	return c.LeadsStoreKey
}

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string             { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int              { return c.AsynqConcurrency }
func (c *Config) GetSheetSyncInterval() time.Duration   { return c.SheetSyncInterval }

// SheetConfig implementation
func (c *Config) GetSheetID() string          { return c.SheetID }
func (c *Config) GetSheetBaseURL() string     { return c.SheetBaseURL }
func (c *Config) GetSheetMappingFile() string { return c.SheetMappingFile }

// CapiConfig implementation
func (c *Config) GetCapiEndpoint() string      { return c.CapiEndpoint }
func (c *Config) GetCapiPixelID() string       { return c.CapiPixelID }
func (c *Config) GetCapiAccessToken() string   { return c.CapiAccessToken }
func (c *Config) GetCapiTestEventCode() string { return c.CapiTestEventCode }
func (c *Config) GetCapiCurrency() string      { return c.CapiCurrency }
func (c *Config) GetCapiCountryPrefix() string { return c.CapiCountryPrefix }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketCSVArchive() string { return c.MinioBucketCSVArchive }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from environment variables, loading a .env file
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		JWTAccessSecret:       os.Getenv("JWT_ACCESS_SECRET"),
		AccessTokenTTL:        getDurationEnv("ACCESS_TOKEN_TTL", 24*time.Hour),
		AdminEmail:            os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash:     os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSAllowAll:          getBoolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:           splitCSV(os.Getenv("CORS_ORIGINS")),
		CORSAllowCreds:        getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:              os.Getenv("REDIS_URL"),
		RedisTLSInsecure:      getBoolEnv("REDIS_TLS_INSECURE", false),
		LeadsStoreKey:         getEnv("LEADS_STORE_KEY", "leads:all"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      getIntEnv("ASYNQ_CONCURRENCY", 10),
		SheetSyncInterval:     getDurationEnv("SHEET_SYNC_INTERVAL", 30*time.Second),
		SheetID:               os.Getenv("SHEET_ID"),
		SheetBaseURL:          getEnv("SHEET_BASE_URL", "https://docs.google.com/spreadsheets/d"),
		SheetMappingFile:      getEnv("SHEET_MAPPING_FILE", "config/sheet_mapping.yaml"),
		CapiEndpoint:          getEnv("CAPI_ENDPOINT", "https://graph.facebook.com/v19.0"),
		CapiPixelID:           os.Getenv("CAPI_PIXEL_ID"),
		CapiAccessToken:       os.Getenv("CAPI_ACCESS_TOKEN"),
		CapiTestEventCode:     os.Getenv("CAPI_TEST_EVENT_CODE"),
		CapiCurrency:          getEnv("CAPI_CURRENCY", "INR"),
		CapiCountryPrefix:     getEnv("CAPI_COUNTRY_PREFIX", "91"),
		MinIOEndpoint:         os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:        os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:        os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:           getBoolEnv("MINIO_USE_SSL", false),
		MinIOMaxFileSize:      getInt64Env("MINIO_MAX_FILE_SIZE", 10*1024*1024),
		MinioBucketCSVArchive: getEnv("MINIO_BUCKET_CSV_ARCHIVE", "lead-csv-archive"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.AdminEmail == "" || c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt64Env(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

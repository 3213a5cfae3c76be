package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// サポートするストレージドライバ。
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string

	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Rate Limit（req/min/client）
	RateLimitGeneral int
	RateLimitMark    int

	// Logging
	LogLevel slog.Level

	// Worker
	OrphanAuditInterval time.Duration
	OrphanLogPurge      bool
	WorkerMetricsPort   string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StorageDriver = strings.ToLower(getEnvString("STORAGE_DRIVER", StorageDriverPostgres))
	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverSQLite, StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER: %q", cfg.StorageDriver)
	}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StorageDriver == StorageDriverPostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	level, err := ParseLogLevel(getEnvString("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	// Optional fields with defaults
	cfg.SQLitePath = getEnvString("SQLITE_PATH", "habitrack.db")
	cfg.ServerPort = getEnvString("SERVER_PORT", getEnvString("PORT", "3000"))
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitMark = getEnvInt("RATE_LIMIT_MARK", 30)
	cfg.OrphanAuditInterval = getEnvDuration("ORPHAN_AUDIT_INTERVAL", 24*time.Hour)
	cfg.OrphanLogPurge = getEnvBool("ORPHAN_LOG_PURGE", false)
	cfg.WorkerMetricsPort = getEnvString("WORKER_METRICS_PORT", "9091")

	if cfg.RateLimitGeneral <= 0 || cfg.RateLimitMark <= 0 {
		return nil, fmt.Errorf("rate limits must be positive: general=%d mark=%d", cfg.RateLimitGeneral, cfg.RateLimitMark)
	}
	if cfg.OrphanAuditInterval <= 0 {
		return nil, fmt.Errorf("ORPHAN_AUDIT_INTERVAL must be positive: %s", cfg.OrphanAuditInterval)
	}

	return cfg, nil
}

// ParseLogLevel はLOG_LEVELの文字列をslog.Levelに変換する。
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

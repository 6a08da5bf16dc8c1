package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// 通知チャネルの種別。NOTIFIER環境変数で切り替える。
const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Scheduler
	TickInterval time.Duration

	// Send
	SendMaxAttempts    int
	SendBackoffInitial time.Duration

	// Notifier
	Notifier     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Rate Limit
	RateLimitGeneral int
	RateLimitUserReg int

	// Server
	ServerPort  string
	MetricsPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TickInterval = getEnvDuration("TICK_INTERVAL", 15*time.Minute)
	cfg.SendMaxAttempts = getEnvInt("SEND_MAX_ATTEMPTS", 3)
	cfg.SendBackoffInitial = getEnvDuration("SEND_BACKOFF_INITIAL", 2*time.Second)
	cfg.Notifier = getEnvString("NOTIFIER", NotifierLog)
	cfg.SMTPHost = getEnvString("SMTP_HOST", "localhost")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.SMTPUser = getEnvString("SMTP_USER", "")
	cfg.SMTPPassword = getEnvString("SMTP_PASSWORD", "")
	cfg.SMTPFrom = getEnvString("SMTP_FROM", "greetman@localhost")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitUserReg = getEnvInt("RATE_LIMIT_USER_REG", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.Notifier != NotifierLog && cfg.Notifier != NotifierSMTP {
		return nil, fmt.Errorf("NOTIFIER must be %q or %q, got %q", NotifierLog, NotifierSMTP, cfg.Notifier)
	}
	if cfg.SendMaxAttempts < 1 {
		return nil, fmt.Errorf("SEND_MAX_ATTEMPTS must be at least 1, got %d", cfg.SendMaxAttempts)
	}

	return cfg, nil
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

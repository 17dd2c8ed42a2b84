package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultAdminPassword は初期管理者の既定パスワード。
// 既知の弱い認証情報のため、使用時は起動ログで警告する。
const DefaultAdminPassword = "admin123"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge int

	// Admin seed
	AdminPassword        string
	AdminPasswordDefault bool

	// Rate Limit (requests per minute)
	RateLimitGeneral int
	RateLimitSubmit  int

	// Server
	ServerPort  string
	BaseURL     string
	MetricsPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// Proxy
	TrustProxy bool // リバースプロキシのX-Forwarded-For等を信頼する

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// ENV=dev の場合はカレントディレクトリの.envを先に読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if os.Getenv("ENV") == "dev" {
		// .envが無い場合は環境変数のみで続行する
		_ = godotenv.Load()
	}

	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 43200)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 300)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = strings.TrimRight(getEnvString("BASE_URL", "http://localhost:8080"), "/")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)

	// METRICS_PORT= と空で指定した場合はメトリクスサーバーを起動しない
	if v, ok := os.LookupEnv("METRICS_PORT"); ok {
		cfg.MetricsPort = v
	} else {
		cfg.MetricsPort = "9090"
	}

	cfg.AdminPassword = os.Getenv("ADMIN_DEFAULT_PASSWORD")
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = DefaultAdminPassword
		cfg.AdminPasswordDefault = true
	}

	if cfg.SessionMaxAge <= 0 {
		return nil, fmt.Errorf("SESSION_MAX_AGE must be positive: %d", cfg.SessionMaxAge)
	}
	if cfg.RateLimitGeneral <= 0 || cfg.RateLimitSubmit <= 0 {
		return nil, fmt.Errorf("rate limits must be positive: general=%d submit=%d",
			cfg.RateLimitGeneral, cfg.RateLimitSubmit)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
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

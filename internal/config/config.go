package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	TMDB TMDBConfig

	BulkImportMax         int
	BulkImportConcurrency int
	GenreSyncInterval     time.Duration
}

// TMDBConfig TMDB 接入配置
type TMDBConfig struct {
	Token        string // v4 读访问令牌 (Bearer)
	BaseURL      string
	ImageBaseURL string
	Language     string
	RPS          float64
	Timeout      time.Duration
	CacheSize    int
	CacheTTL     time.Duration
}

// Load 加载配置
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "moovie")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := getEnv("DATABASE_URL", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL))

	env := getEnv("APP_ENV", "development")
	logFormat := "console"
	if env == "production" {
		logFormat = "json"
	}

	return &Config{
		Env:         env,
		AppSecret:   getEnv("APP_SECRET", getEnv("JWT_SECRET", defaultSecret)),
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 72)) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		SiteName:    getEnv("SITE_NAME", "Moovie"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", logFormat),
		TMDB: TMDBConfig{
			Token:        getEnv("TMDB_TOKEN", ""),
			BaseURL:      strings.TrimRight(getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
			ImageBaseURL: strings.TrimRight(getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"), "/"),
			Language:     getEnv("TMDB_LANGUAGE", "en-US"),
			RPS:          getEnvFloat("TMDB_RPS", 20),
			Timeout:      time.Duration(getEnvInt("TMDB_TIMEOUT_SECONDS", 10)) * time.Second,
			CacheSize:    getEnvInt("TMDB_CACHE_SIZE", 500),
			CacheTTL:     time.Duration(getEnvInt("TMDB_CACHE_TTL_MINUTES", 30)) * time.Minute,
		},
		BulkImportMax:         getEnvInt("BULK_IMPORT_MAX", 50),
		BulkImportConcurrency: getEnvInt("BULK_IMPORT_CONCURRENCY", 4),
		GenreSyncInterval:     time.Duration(getEnvInt("GENRE_SYNC_INTERVAL_HOURS", 24)) * time.Hour,
	}
}

// Validate 校验配置，生产环境使用默认密钥时返回警告信息
func (c *Config) Validate() (warnings []string, err error) {
	if c.Env == "production" && c.AppSecret == defaultSecret {
		warnings = append(warnings, "【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}
	if c.TMDB.Token == "" {
		warnings = append(warnings, "未设置 TMDB_TOKEN，TMDB 导入与推荐候选将不可用")
	}

	var errs []error
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS 必须大于 0"))
	}
	if c.TMDB.RPS <= 0 {
		errs = append(errs, errors.New("TMDB_RPS 必须大于 0"))
	}
	if c.TMDB.Timeout <= 0 {
		errs = append(errs, errors.New("TMDB_TIMEOUT_SECONDS 必须大于 0"))
	}
	if c.TMDB.CacheSize <= 0 {
		errs = append(errs, errors.New("TMDB_CACHE_SIZE 必须大于 0"))
	}
	if c.BulkImportMax <= 0 || c.BulkImportConcurrency <= 0 {
		errs = append(errs, errors.New("BULK_IMPORT_MAX 与 BULK_IMPORT_CONCURRENCY 必须大于 0"))
	}
	if c.GenreSyncInterval < 0 {
		errs = append(errs, errors.New("GENRE_SYNC_INTERVAL_HOURS 不能为负数，0 表示只在启动时同步一次"))
	}
	return warnings, errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

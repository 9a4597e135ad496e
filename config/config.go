package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port             string
	MongoURI         string
	DBName           string
	UseMemoryStore   bool
	LogLevel         string
	LogFormat        string // "json" or "console"
	RateLimitWindow  time.Duration
	RateLimitMax     int
	CORSOrigins      []string
	HomeSectionLimit int

	// Seeding only.
	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3Endpoint      string // R2 / MinIO compatible endpoint; empty means AWS
	PublicCoverBase string
}

func Load() (*Config, error) {
	window := time.Minute
	if v := getEnv("RATE_LIMIT_WINDOW", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			window = d
		}
	} else if ms := parsePositiveInt(getEnv("RATE_LIMIT_WINDOW_MS", ""), 0); ms > 0 {
		window = time.Duration(ms) * time.Millisecond
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("MONGODB_DB", "biblioteka"),
		UseMemoryStore:   getEnv("USE_MEMORY_STORE", "false") == "true",
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
		RateLimitWindow:  window,
		RateLimitMax:     parsePositiveInt(getEnv("RATE_LIMIT_MAX", ""), 20),
		CORSOrigins:      splitList(getEnv("CORS_ORIGIN", "*")),
		HomeSectionLimit: parsePositiveInt(getEnv("HOME_SECTION_LIMIT", ""), 8),
		S3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		S3Region:         getEnv("AWS_REGION", "auto"),
		S3AccessKeyID:    getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		PublicCoverBase:  strings.TrimRight(getEnv("R2_PUBLIC_BASE_URL", ""), "/"),
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (use json or console)", cfg.LogFormat)
	}
	return cfg, nil
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePositiveInt(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

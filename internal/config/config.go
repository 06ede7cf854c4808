package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Database
	DBType     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	MigrationsPath string

	// Object storage
	StorageBackend string // "local" or "minio"
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Blob store
	QuotaBytes     int64
	MaxUploadBytes int64
	PlaybackTTL    time.Duration
	SigningSecret  string

	// Redis
	RedisAddr     string
	RedisPassword string

	// Auth
	JWTSecret   string
	TokenExpiry time.Duration

	// Media probing
	ProbeEnabled bool
	ProbeTimeout time.Duration

	// Demo mode seeds the in-memory catalog instead of the database.
	DemoMode bool
}

const (
	defaultQuotaBytes     = 10 << 30  // 10 GiB
	defaultMaxUploadBytes = 100 << 20 // 100 MiB
)

// Load reads configuration from the environment. A .env file is loaded
// first if present; real environment variables win over file entries.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBType:         getEnv("DB_TYPE", "sqlite"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "streamhub"),
		DBPassword:     getEnv("DB_PASSWORD", "streamhub_dev"),
		DBName:         getEnv("DB_NAME", "streamhub"),
		SQLitePath:     getEnv("DB_PATH", "./streamhub.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "streamhub-videos"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		SigningSecret:  getEnv("SIGNING_SECRET", "dev-signing-secret"),
	}

	var err error
	if cfg.DBPort, err = getEnvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}

	quota, err := getEnvInt64("STORAGE_QUOTA_BYTES", defaultQuotaBytes)
	if err != nil {
		return nil, err
	}
	cfg.QuotaBytes = quota

	// The upstream UI carried two conflicting ceilings (500MB dialog,
	// 100MB submit). There is exactly one authoritative limit here.
	maxUpload, err := getEnvInt64("UPLOAD_MAX_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = maxUpload

	playbackTTL, err := getEnvInt("PLAYBACK_URL_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.PlaybackTTL = time.Duration(playbackTTL) * time.Second

	tokenExpiry, err := getEnvInt("TOKEN_EXPIRY_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	cfg.TokenExpiry = time.Duration(tokenExpiry) * time.Second

	probeTimeout, err := getEnvInt("PROBE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ProbeTimeout = time.Duration(probeTimeout) * time.Second

	cfg.ProbeEnabled = getEnv("PROBE_ENABLED", "true") == "true"
	cfg.DemoMode = os.Getenv("DEMO_MODE") == "true"

	if cfg.StorageBackend != "local" && cfg.StorageBackend != "minio" {
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type MediaBackend string

const (
	MediaBackendLocal MediaBackend = "local" // Files under MEDIA_ROOT (default)
	MediaBackendMinIO MediaBackend = "minio" // S3-compatible bucket
)

type (
	Config struct {
		HTTP
		Global
		Log
		Database
		UI
		Media
		MinIO
		Tasks
		CoverSweep
		Auth
		ReadOnly
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
		// WriteRPS limits POST requests per client IP; 0 disables throttling
		WriteRPS   float64
		WriteBurst int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Level string // debug, info, warn, error
	}
	Database struct {
		Path string
	}
	UI struct {
		// TemplatesPath overrides the embedded templates when set
		TemplatesPath string
	}
	Media struct {
		Backend        MediaBackend
		Root           string
		MaxUploadBytes int64
	}
	MinIO struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	CoverSweep struct {
		Enabled  bool
		Schedule string        // Cron format: "30 3 * * *" = daily at 03:30
		MinAge   time.Duration // Unreferenced files younger than this are kept
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
		RateLimitRedis   string        // Redis address; empty keeps the limiter in memory
	}
	ReadOnly struct {
		Enabled bool
	}
	Metrics struct {
		Enabled bool
	}
)

// loadDotEnv reads a .env file from the working directory if one exists.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}
}

func NewConfig() *Config {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_write_rps", 5)
	v.SetDefault("http_write_burst", 20)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "")

	// Media defaults
	v.SetDefault("media_backend", string(MediaBackendLocal))
	v.SetDefault("media_root", DefaultMediaRoot)
	v.SetDefault("media_max_upload_bytes", 5<<20) // 5 MiB
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_bucket", "bookshelf")
	v.SetDefault("minio_use_ssl", false)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Orphan cover sweep defaults
	v.SetDefault("cover_sweep_enabled", true)
	v.SetDefault("cover_sweep_schedule", "30 3 * * *")
	v.SetDefault("cover_sweep_min_age", "1h")

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "336h") // 2 weeks
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration
	v.SetDefault("auth_rate_limit_redis_addr", "")

	v.SetDefault("read_only_mode", false)
	v.SetDefault("metrics_enabled", true)

	return &Config{
		HTTP: HTTP{
			Port:       v.GetInt32("PORT"),
			Host:       v.GetString("HOST"),
			WriteRPS:   v.GetFloat64("HTTP_WRITE_RPS"),
			WriteBurst: v.GetInt("HTTP_WRITE_BURST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
		},
		Media: Media{
			Backend:        MediaBackend(v.GetString("MEDIA_BACKEND")),
			Root:           v.GetString("MEDIA_ROOT"),
			MaxUploadBytes: v.GetInt64("MEDIA_MAX_UPLOAD_BYTES"),
		},
		MinIO: MinIO{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		CoverSweep: CoverSweep{
			Enabled:  v.GetBool("COVER_SWEEP_ENABLED"),
			Schedule: v.GetString("COVER_SWEEP_SCHEDULE"),
			MinAge:   v.GetDuration("COVER_SWEEP_MIN_AGE"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
			RateLimitRedis:   v.GetString("AUTH_RATE_LIMIT_REDIS_ADDR"),
		},
		ReadOnly: ReadOnly{
			Enabled: v.GetBool("READ_ONLY_MODE"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}
}

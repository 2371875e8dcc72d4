package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		MetadataRefresh
		Tasks
		Tokens
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	MetadataRefresh struct {
		Enabled   bool
		StaleDays int // Anime older than this are refreshed in the background
		BatchSize int // Max anime refreshed per scheduled run
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Tokens struct {
		DatabasePath  string
		EncryptionKey string // Base64-encoded; resolved elsewhere when empty
		KeyFilePath   string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("metadata_refresh_enabled", true)
	v.SetDefault("metadata_refresh_stale_days", 7)
	v.SetDefault("metadata_refresh_batch_size", 25)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Token store defaults
	v.SetDefault("token_database_path", DefaultTokenDatabasePath)
	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file_path", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		MetadataRefresh: MetadataRefresh{
			Enabled:   v.GetBool("METADATA_REFRESH_ENABLED"),
			StaleDays: v.GetInt("METADATA_REFRESH_STALE_DAYS"),
			BatchSize: v.GetInt("METADATA_REFRESH_BATCH_SIZE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Tokens: Tokens{
			DatabasePath:  v.GetString("TOKEN_DATABASE_PATH"),
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFilePath:   v.GetString("TOKEN_KEY_FILE_PATH"),
		},
	}
}

package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel     string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	APIKey       string        `mapstructure:"api_key" validate:"required,min=16"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains the cache and pending-marker connection settings.
type RedisConfig struct {
	Addr       string        `mapstructure:"addr" validate:"required,hostname_port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db" validate:"gte=0"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	PendingTTL time.Duration `mapstructure:"pending_ttl" validate:"gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey   string        `mapstructure:"gemini_api_key" validate:"required"`
	ModelName      string        `mapstructure:"model_name" validate:"required"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// TaskConfig contains settings for the background enrichment queue.
type TaskConfig struct {
	WorkerCount            int           `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize              int           `mapstructure:"queue_size" validate:"gt=0"`
	MaxAttempts            int           `mapstructure:"max_attempts" validate:"gt=0"`
	RetryBackoff           time.Duration `mapstructure:"retry_backoff" validate:"gte=0"`
	StuckTaskAge           time.Duration `mapstructure:"stuck_task_age" validate:"gt=0"`
	StuckTaskCheckInterval time.Duration `mapstructure:"stuck_task_check_interval" validate:"gt=0"`
}

// SyncConfig controls the periodic import of external leads.
type SyncConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Schedule     string        `mapstructure:"schedule" validate:"required"`
	SourceURL    string        `mapstructure:"source_url" validate:"required,url"`
	BatchSize    int           `mapstructure:"batch_size" validate:"gt=0,lte=5000"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Validation ValidationConfig `mapstructure:"validation"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`   // sqlite file
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

// IngestConfig controls the drop folder monitor.
type IngestConfig struct {
	FolderPath             string `mapstructure:"folder_path"`
	MonitoredFileName      string `mapstructure:"monitored_file_name"` // exact name or glob
	Kind                   string `mapstructure:"kind"`                // empty: derive from file name
	PollingIntervalSeconds int    `mapstructure:"polling_interval_seconds"`
	ErrorCooldownSeconds   int    `mapstructure:"error_cooldown_seconds"`
	DebounceMs             int    `mapstructure:"debounce_ms"`
	LockRetryMs            int    `mapstructure:"lock_retry_ms"`
	Workers                int    `mapstructure:"workers"`
	QueueSize              int    `mapstructure:"queue_size"`
	StaleAfterSeconds      int    `mapstructure:"stale_after_seconds"`
	RejectInvalid          bool   `mapstructure:"reject_invalid"`
	WatchEnabled           bool   `mapstructure:"watch_enabled"`
}

func (c IngestConfig) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalSeconds) * time.Second
}

func (c IngestConfig) ErrorCooldown() time.Duration {
	return time.Duration(c.ErrorCooldownSeconds) * time.Second
}

func (c IngestConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c IngestConfig) LockRetry() time.Duration {
	return time.Duration(c.LockRetryMs) * time.Millisecond
}

func (c IngestConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// ValidationConfig holds the inclusive price bounds. Values are decimal strings.
type ValidationConfig struct {
	MinPrice string `mapstructure:"min_price"`
	MaxPrice string `mapstructure:"max_price"`
}

// PriceBounds parses the configured bounds.
func (c ValidationConfig) PriceBounds() (decimal.Decimal, decimal.Decimal, error) {
	minPrice, err := decimal.NewFromString(c.MinPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid validation.min_price %q: %w", c.MinPrice, err)
	}
	maxPrice, err := decimal.NewFromString(c.MaxPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid validation.max_price %q: %w", c.MaxPrice, err)
	}
	if minPrice.GreaterThan(maxPrice) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("validation.min_price %s exceeds max_price %s", minPrice, maxPrice)
	}
	return minPrice, maxPrice, nil
}

// ArchiveConfig selects where processed files go.
type ArchiveConfig struct {
	Backend     string `mapstructure:"backend"` // local, s3
	Dir         string `mapstructure:"dir"`     // relative to the monitored folder
	RejectedDir string `mapstructure:"rejected_dir"`
	KeyPrefix   string `mapstructure:"key_prefix"` // object key prefix for the s3 backend
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	FileOnly   bool   `mapstructure:"file_only"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("ingest.folder_path", "BLOB_FOLDER_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.ResolveEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/orders.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("ingest.folder_path", "./BlobStorage")
	v.SetDefault("ingest.monitored_file_name", "*.json")
	v.SetDefault("ingest.kind", "")
	v.SetDefault("ingest.polling_interval_seconds", 5)
	v.SetDefault("ingest.error_cooldown_seconds", 10)
	v.SetDefault("ingest.debounce_ms", 100)
	v.SetDefault("ingest.lock_retry_ms", 1000)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.queue_size", 64)
	v.SetDefault("ingest.stale_after_seconds", 300)
	v.SetDefault("ingest.reject_invalid", false)
	v.SetDefault("ingest.watch_enabled", true)

	v.SetDefault("validation.min_price", "200")
	v.SetDefault("validation.max_price", "1000")

	v.SetDefault("archive.backend", "local")
	v.SetDefault("archive.dir", "_Archive")
	v.SetDefault("archive.rejected_dir", "_Rejected")
	v.SetDefault("archive.key_prefix", "archive")

	v.SetDefault("storage.type", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "order-drops")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
}

// Validate rejects settings the monitor cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ingest.FolderPath) == "" {
		return errors.New("ingest.folder_path is required")
	}
	if strings.TrimSpace(c.Ingest.MonitoredFileName) == "" {
		return errors.New("ingest.monitored_file_name is required")
	}
	if c.Ingest.PollingIntervalSeconds <= 0 {
		return fmt.Errorf("ingest.polling_interval_seconds must be positive, got %d", c.Ingest.PollingIntervalSeconds)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be positive, got %d", c.Ingest.Workers)
	}
	if c.Ingest.QueueSize <= 0 {
		return fmt.Errorf("ingest.queue_size must be positive, got %d", c.Ingest.QueueSize)
	}
	if _, _, err := c.Validation.PriceBounds(); err != nil {
		return err
	}
	switch c.Archive.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("archive.backend must be local or s3, got %q", c.Archive.Backend)
	}
	return nil
}

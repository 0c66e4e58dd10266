package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FILEINGEST"

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
}

// TelegramConfig holds the bot token and the two endpoint templates.
// FileInfoURI must contain {token} and {fileId}; FileStorageURI must contain
// {token} and {filePath}.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"`
	FileInfoURI    string        `mapstructure:"file_info_uri"`
	FileStorageURI string        `mapstructure:"file_storage_uri"`
	Timeout        time.Duration `mapstructure:"timeout"` // 0 disables the client timeout
}

type ServerConfig struct {
	GRPCAddr      string   `mapstructure:"grpc_addr"`
	MetricsAddr   string   `mapstructure:"metrics_addr"`
	MaxConcurrent int64    `mapstructure:"max_concurrent"`
	APIKeys       []string `mapstructure:"api_keys"` // empty disables auth
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Pretty  bool `mapstructure:"pretty"`
}

type StorageConfig struct {
	Content        string `mapstructure:"content"` // memory, filesystem, s3, postgres
	Records        string `mapstructure:"records"` // memory, postgres
	FilesystemPath string `mapstructure:"filesystem_path"`
	Atomic         bool   `mapstructure:"atomic"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
	BackendPostgres   = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.file_info_uri", "https://api.telegram.org/bot{token}/getFile?file_id={fileId}")
	v.SetDefault("telegram.file_storage_uri", "https://api.telegram.org/file/bot{token}/{filePath}")
	v.SetDefault("telegram.timeout", time.Duration(0))

	v.SetDefault("server.grpc_addr", ":50051")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.max_concurrent", 16)
	v.SetDefault("server.api_keys", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.pretty", false)

	v.SetDefault("storage.content", BackendMemory)
	v.SetDefault("storage.records", BackendMemory)
	v.SetDefault("storage.filesystem_path", "./data/files")
	v.SetDefault("storage.atomic", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "contents")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
}

// Load reads configuration from the optional file at path and from
// FILEINGEST_* environment variables, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	if !strings.Contains(c.Telegram.FileInfoURI, "{fileId}") {
		return errors.New("telegram.file_info_uri must contain {fileId}")
	}
	if !strings.Contains(c.Telegram.FileStorageURI, "{filePath}") {
		return errors.New("telegram.file_storage_uri must contain {filePath}")
	}
	if c.Telegram.Timeout < 0 {
		return errors.New("telegram.timeout cannot be negative")
	}
	if c.Server.MaxConcurrent <= 0 {
		return errors.New("server.max_concurrent must be positive")
	}

	switch c.Storage.Content {
	case BackendMemory, BackendPostgres:
	case BackendFilesystem:
		if c.Storage.FilesystemPath == "" {
			return errors.New("storage.filesystem_path is required for the filesystem backend")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage.content backend %q", c.Storage.Content)
	}

	switch c.Storage.Records {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("unknown storage.records backend %q", c.Storage.Records)
	}

	if c.UsesPostgres() && c.Database.URL == "" {
		return errors.New("database.url is required for the postgres backend")
	}
	if c.Storage.Atomic && (c.Storage.Content != BackendPostgres || c.Storage.Records != BackendPostgres) {
		return errors.New("storage.atomic requires postgres for both content and records")
	}
	return nil
}

// UsesPostgres reports whether either store is backed by Postgres.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Content == BackendPostgres || c.Storage.Records == BackendPostgres
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:          "123:abc",
			FileInfoURI:    "https://api.telegram.org/bot{token}/getFile?file_id={fileId}",
			FileStorageURI: "https://api.telegram.org/file/bot{token}/{filePath}",
		},
		Server:  ServerConfig{MaxConcurrent: 4},
		Storage: StorageConfig{Content: BackendMemory, Records: BackendMemory},
	}
}

func TestLoadDefaultsWithEnvToken(t *testing.T) {
	t.Setenv("FILEINGEST_TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "https://api.telegram.org/bot{token}/getFile?file_id={fileId}", cfg.Telegram.FileInfoURI)
	assert.Equal(t, "https://api.telegram.org/file/bot{token}/{filePath}", cfg.Telegram.FileStorageURI)
	assert.Equal(t, time.Duration(0), cfg.Telegram.Timeout)
	assert.Equal(t, ":50051", cfg.Server.GRPCAddr)
	assert.Equal(t, int64(16), cfg.Server.MaxConcurrent)
	assert.Equal(t, BackendMemory, cfg.Storage.Content)
	assert.Equal(t, BackendMemory, cfg.Storage.Records)
	assert.False(t, cfg.Storage.Atomic)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fileingest.yaml")
	content := `
telegram:
  token: "999:zzz"
  timeout: 30s
server:
  max_concurrent: 2
  api_keys: ["k1", "k2"]
storage:
  content: filesystem
  filesystem_path: /tmp/blobs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "999:zzz", cfg.Telegram.Token)
	assert.Equal(t, 30*time.Second, cfg.Telegram.Timeout)
	assert.Equal(t, int64(2), cfg.Server.MaxConcurrent)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, BackendFilesystem, cfg.Storage.Content)
	assert.Equal(t, "/tmp/blobs", cfg.Storage.FilesystemPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("FILEINGEST_TELEGRAM_TOKEN", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing fileId placeholder", mutate: func(c *Config) { c.Telegram.FileInfoURI = "https://x/getFile" }, wantErr: "{fileId}"},
		{name: "missing filePath placeholder", mutate: func(c *Config) { c.Telegram.FileStorageURI = "https://x/file" }, wantErr: "{filePath}"},
		{name: "negative timeout", mutate: func(c *Config) { c.Telegram.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Server.MaxConcurrent = 0 }, wantErr: "max_concurrent"},
		{name: "unknown content backend", mutate: func(c *Config) { c.Storage.Content = "tape" }, wantErr: "storage.content"},
		{name: "unknown records backend", mutate: func(c *Config) { c.Storage.Records = "s3" }, wantErr: "storage.records"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Content = BackendS3 }, wantErr: "s3.bucket"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Records = BackendPostgres }, wantErr: "database.url"},
		{
			name: "atomic needs postgres for both",
			mutate: func(c *Config) {
				c.Storage.Atomic = true
				c.Storage.Records = BackendPostgres
				c.Database.URL = "postgres://localhost/fileingest"
			},
			wantErr: "storage.atomic",
		},
		{
			name: "atomic with postgres",
			mutate: func(c *Config) {
				c.Storage.Atomic = true
				c.Storage.Content = BackendPostgres
				c.Storage.Records = BackendPostgres
				c.Database.URL = "postgres://localhost/fileingest"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/config"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/database"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/observability"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/service"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/storage"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/telegram"
)

// App is the wired ingest pipeline plus what the host needs to watch and
// release it.
type App struct {
	Service *service.FileService
	Checks  []observability.HealthFunc

	closers []func() error
}

// New builds stores, Telegram clients and the FileService described by cfg.
// metrics and tp may be nil.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.PipelineMetrics, tp trace.TracerProvider) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{}

	var db *database.PostgresDB
	if cfg.UsesPostgres() {
		var err error
		db, err = database.NewPostgresDB(ctx, cfg.Database, logger.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.Checks = append(a.Checks, db.Ping)

		if err := db.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	var mem *storage.MemoryStore
	memory := func() *storage.MemoryStore {
		if mem == nil {
			mem = storage.NewMemoryStore()
		}
		return mem
	}

	var content storage.ContentStore
	switch cfg.Storage.Content {
	case config.BackendMemory:
		content = memory()
	case config.BackendFilesystem:
		fs, err := storage.NewFilesystemStore(cfg.Storage.FilesystemPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		content = fs
	case config.BackendS3:
		s3 := storage.NewS3Store(storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, logger.Named("s3"))
		content = s3
		a.Checks = append(a.Checks, s3.HealthCheck)
	case config.BackendPostgres:
		content = db
	default:
		a.Close()
		return nil, fmt.Errorf("unknown content backend %q", cfg.Storage.Content)
	}

	var records storage.RecordStore
	switch cfg.Storage.Records {
	case config.BackendMemory:
		records = memory()
	case config.BackendPostgres:
		records = db
	default:
		a.Close()
		return nil, fmt.Errorf("unknown records backend %q", cfg.Storage.Records)
	}

	opts := []service.Option{
		service.WithLogger(logger.Named("ingest")),
		service.WithMetrics(metrics),
	}
	if tp != nil {
		opts = append(opts, service.WithTracerProvider(tp))
	}
	if cfg.Storage.Atomic {
		if db == nil {
			a.Close()
			return nil, errors.New("atomic persistence needs the postgres backend")
		}
		opts = append(opts, service.WithAtomicPersistence(db))
	}

	client := telegram.NewHTTPClient(cfg.Telegram.Timeout, tp)
	tgLogger := logger.Named("telegram")
	a.Service = service.NewFileService(
		telegram.NewFileResolver(client, cfg.Telegram.Token, cfg.Telegram.FileInfoURI, tgLogger),
		telegram.NewDownloader(client, cfg.Telegram.Token, cfg.Telegram.FileStorageURI, tgLogger),
		content,
		records,
		opts...,
	)

	logger.Info("ingest pipeline ready",
		zap.String("content_backend", cfg.Storage.Content),
		zap.String("records_backend", cfg.Storage.Records),
		zap.Bool("atomic", cfg.Storage.Atomic),
	)
	return a, nil
}

// Close releases database connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

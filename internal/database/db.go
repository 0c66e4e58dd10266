package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/config"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/storage"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresDB stores blobs in binary_contents and records in file_records.
// It implements storage.ContentStore, storage.RecordStore and
// storage.Transactor.
type PostgresDB struct {
	store
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{store: store{q: db}, db: db, logger: logger}, nil
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// InTx runs fn against stores bound to one transaction. fn's error, or a
// failed commit, rolls everything back.
func (p *PostgresDB) InTx(ctx context.Context, fn func(storage.ContentStore, storage.RecordStore) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &store{q: tx}
	if err := fn(txStore, txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// store holds the queries; it runs either on the pool or inside a tx.
type store struct {
	q queryer
}

func (s *store) SaveContent(ctx context.Context, data []byte) (models.ContentRef, error) {
	id := newID()
	query := `
        INSERT INTO binary_contents (id, data, created_at)
        VALUES ($1, $2, $3)
    `
	if data == nil {
		data = []byte{}
	}
	if _, err := s.q.ExecContext(ctx, query, id, data, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert content: %w", err)
	}
	return models.ContentRef(id), nil
}

func (s *store) LoadContent(ctx context.Context, ref models.ContentRef) ([]byte, error) {
	query := `SELECT data FROM binary_contents WHERE id = $1`

	var data []byte
	err := s.q.QueryRowContext(ctx, query, string(ref)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select content: %w", err)
	}
	return data, nil
}

func (s *store) SaveRecord(ctx context.Context, rec models.Record) error {
	row := toRow(rec)
	row.ID = newID()
	row.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO file_records (id, kind, remote_file_id, name, mime_type, size_bytes, content_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := s.q.ExecContext(ctx, query,
		row.ID,
		row.Kind,
		row.RemoteFileID,
		row.Name,
		row.MimeType,
		row.SizeBytes,
		row.ContentID,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	base := rec.Base()
	base.ID = row.ID
	base.CreatedAt = row.CreatedAt
	return nil
}

func (s *store) GetRecord(ctx context.Context, id string) (models.Record, error) {
	query := `
        SELECT id, kind, remote_file_id, name, mime_type, size_bytes, content_id, created_at
        FROM file_records
        WHERE id = $1
    `

	var row recordRow
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&row.ID,
		&row.Kind,
		&row.RemoteFileID,
		&row.Name,
		&row.MimeType,
		&row.SizeBytes,
		&row.ContentID,
		&row.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}
	return row.toRecord()
}

// Ping checks the connection pool.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

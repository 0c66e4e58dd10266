package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
)

// The id columns are text rather than uuid so refs from other content
// stores can be recorded unchanged.
const schema = `
CREATE TABLE IF NOT EXISTS binary_contents (
    id         TEXT PRIMARY KEY,
    data       BYTEA NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS file_records (
    id             TEXT PRIMARY KEY,
    kind           TEXT NOT NULL,
    remote_file_id TEXT NOT NULL,
    name           TEXT NOT NULL DEFAULT '',
    mime_type      TEXT NOT NULL DEFAULT '',
    size_bytes     BIGINT NOT NULL,
    content_id     TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables if they do not exist.
func (p *PostgresDB) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

var newID = func() string { return uuid.New().String() }

// recordRow is the flat file_records row shared by both record kinds.
type recordRow struct {
	ID           string
	Kind         models.Kind
	RemoteFileID string
	Name         string
	MimeType     string
	SizeBytes    int64
	ContentID    string
	CreatedAt    time.Time
}

func toRow(rec models.Record) recordRow {
	base := rec.Base()
	row := recordRow{
		ID:           base.ID,
		Kind:         rec.Kind(),
		RemoteFileID: base.RemoteFileID,
		SizeBytes:    base.SizeBytes,
		ContentID:    string(base.Content),
		CreatedAt:    base.CreatedAt,
	}
	if doc, ok := rec.(*models.DocumentRecord); ok {
		row.Name = doc.Name
		row.MimeType = doc.MimeType
	}
	return row
}

func (r recordRow) toRecord() (models.Record, error) {
	base := models.FileRecord{
		ID:           r.ID,
		RemoteFileID: r.RemoteFileID,
		SizeBytes:    r.SizeBytes,
		Content:      models.ContentRef(r.ContentID),
		CreatedAt:    r.CreatedAt.UTC(),
	}
	switch r.Kind {
	case models.KindDocument:
		return &models.DocumentRecord{FileRecord: base, Name: r.Name, MimeType: r.MimeType}, nil
	case models.KindPhoto:
		return &models.PhotoRecord{FileRecord: base}, nil
	default:
		return nil, fmt.Errorf("record %s: unknown kind %q", r.ID, r.Kind)
	}
}

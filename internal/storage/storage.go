package storage

import (
	"context"
	"errors"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
)

// ErrNotFound is returned when a content ref or record id is unknown.
var ErrNotFound = errors.New("not found")

// ContentStore persists opaque blobs.
type ContentStore interface {
	SaveContent(ctx context.Context, data []byte) (models.ContentRef, error)
	LoadContent(ctx context.Context, ref models.ContentRef) ([]byte, error)
}

// RecordStore persists typed file records. SaveRecord assigns the record
// ID and CreatedAt before writing it.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec models.Record) error
	GetRecord(ctx context.Context, id string) (models.Record, error)
}

// Transactor runs fn with stores bound to a single transaction. The
// transaction commits only if fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(ContentStore, RecordStore) error) error
}

// stamp fills in the generated identity of a record about to be saved.
func stamp(rec models.Record) {
	base := rec.Base()
	base.ID = newID()
	base.CreatedAt = now().UTC()
}

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
	"github.com/google/uuid"
)

var (
	newID = func() string { return uuid.New().String() }
	now   = time.Now
)

// MemoryStore keeps blobs and records in process memory. It implements
// ContentStore and RecordStore and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	contents map[models.ContentRef][]byte
	records  map[string]models.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contents: make(map[models.ContentRef][]byte),
		records:  make(map[string]models.Record),
	}
}

func (m *MemoryStore) SaveContent(ctx context.Context, data []byte) (models.ContentRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := models.ContentRef(newID())
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.contents[ref] = buf
	m.mu.Unlock()
	return ref, nil
}

func (m *MemoryStore) LoadContent(ctx context.Context, ref models.ContentRef) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.contents[ref]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStore) SaveRecord(ctx context.Context, rec models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stamp(rec)

	m.mu.Lock()
	m.records[rec.Base().ID] = cloneRecord(rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetRecord(ctx context.Context, id string) (models.Record, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// cloneRecord copies the concrete variant so callers never share the
// stored value.
func cloneRecord(rec models.Record) models.Record {
	switch r := rec.(type) {
	case *models.DocumentRecord:
		c := *r
		return &c
	case *models.PhotoRecord:
		c := *r
		return &c
	default:
		return rec
	}
}

// ContentCount reports how many blobs are stored.
func (m *MemoryStore) ContentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contents)
}

// RecordCount reports how many records are stored.
func (m *MemoryStore) RecordCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

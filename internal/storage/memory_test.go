package storage_test

import (
	"context"
	"sync"
	"testing"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreContentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	data := []byte("hello")
	ref, err := store.SaveContent(ctx, data)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	// later mutation of the caller's slice must not leak into the store
	data[0] = 'j'

	got, err := store.LoadContent(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = store.LoadContent(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStoreSameBytesTwice(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	a, err := store.SaveContent(ctx, []byte("same"))
	require.NoError(t, err)
	b, err := store.SaveContent(ctx, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, store.ContentCount())
}

func TestMemoryStoreRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	doc := &models.DocumentRecord{
		FileRecord: models.FileRecord{RemoteFileID: "doc-1", SizeBytes: 10, Content: "ref-1"},
		Name:       "report.pdf",
		MimeType:   "application/pdf",
	}
	require.NoError(t, store.SaveRecord(ctx, doc))
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())

	got, err := store.GetRecord(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindDocument, got.Kind())
	assert.Equal(t, doc, got)

	_, err = store.GetRecord(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStoreRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	doc := &models.DocumentRecord{
		FileRecord: models.FileRecord{RemoteFileID: "doc-1", Content: "ref-1"},
		Name:       "report.pdf",
	}
	require.NoError(t, store.SaveRecord(ctx, doc))
	doc.Name = "changed.pdf"

	got, err := store.GetRecord(ctx, doc.ID)
	require.NoError(t, err)
	gotDoc, ok := got.(*models.DocumentRecord)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", gotDoc.Name)

	gotDoc.Base().Content = "other"
	again, err := store.GetRecord(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentRef("ref-1"), again.Base().Content)

	photo := &models.PhotoRecord{FileRecord: models.FileRecord{RemoteFileID: "photo-1"}}
	require.NoError(t, store.SaveRecord(ctx, photo))
	photo.SizeBytes = 99

	gotPhoto, err := store.GetRecord(ctx, photo.ID)
	require.NoError(t, err)
	assert.Zero(t, gotPhoto.Base().SizeBytes)
	assert.Equal(t, models.KindPhoto, gotPhoto.Kind())
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := storage.NewMemoryStore()

	_, err := store.SaveContent(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.SaveRecord(ctx, &models.PhotoRecord{}), context.Canceled)
	assert.Zero(t, store.ContentCount())
	assert.Zero(t, store.RecordCount())
}

func TestMemoryStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := store.SaveContent(ctx, []byte("x"))
			assert.NoError(t, err)
			assert.NoError(t, store.SaveRecord(ctx, &models.PhotoRecord{
				FileRecord: models.FileRecord{Content: ref},
			}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.ContentCount())
	assert.Equal(t, 50, store.RecordCount())
}

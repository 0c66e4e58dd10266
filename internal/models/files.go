package models

import "time"

// ContentRef identifies a blob previously saved by a content store.
type ContentRef string

// Kind tags the record variants.
type Kind string

const (
	KindDocument Kind = "document"
	KindPhoto    Kind = "photo"
)

// FileRecord is the shape shared by every record variant.
type FileRecord struct {
	ID           string
	RemoteFileID string
	SizeBytes    int64
	Content      ContentRef
	CreatedAt    time.Time
}

// Record is a persisted file record. The set of implementations is closed:
// *DocumentRecord and *PhotoRecord.
type Record interface {
	Kind() Kind
	Base() *FileRecord
	isRecord()
}

// DocumentRecord is built from a document message.
type DocumentRecord struct {
	FileRecord
	Name     string
	MimeType string
}

func (d *DocumentRecord) Kind() Kind        { return KindDocument }
func (d *DocumentRecord) Base() *FileRecord { return &d.FileRecord }
func (d *DocumentRecord) isRecord()         {}

// PhotoRecord is built from the first size variant of a photo message.
type PhotoRecord struct {
	FileRecord
}

func (p *PhotoRecord) Kind() Kind        { return KindPhoto }
func (p *PhotoRecord) Base() *FileRecord { return &p.FileRecord }
func (p *PhotoRecord) isRecord()         {}

package service

import (
	"errors"
	"fmt"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
)

// Stage names the pipeline step an UploadFailure happened in.
type Stage string

const (
	StageExtract      Stage = "extract"
	StageResolve      Stage = "resolve"
	StageDownload     Stage = "download"
	StageStoreContent Stage = "store_content"
	StageStoreRecord  Stage = "store_record"
)

var (
	ErrNoDocument = errors.New("message has no document")
	ErrNoPhoto    = errors.New("message has no photo")
)

// PersistenceError wraps any failure reported by a content or record store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UploadFailure is the single error type returned by ProcessDocument and
// ProcessPhoto. Err is the originating cause.
type UploadFailure struct {
	Kind   models.Kind
	FileID string
	Stage  Stage
	Err    error
}

func (e *UploadFailure) Error() string {
	if e.FileID == "" {
		return fmt.Sprintf("%s upload failed at %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s upload %s failed at %s: %v", e.Kind, e.FileID, e.Stage, e.Err)
}

func (e *UploadFailure) Unwrap() error { return e.Err }

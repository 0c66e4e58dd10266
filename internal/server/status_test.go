package server

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/service"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/storage"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/telegram"
)

func TestToStatus(t *testing.T) {
	wrap := func(stage service.Stage, err error) error {
		return &service.UploadFailure{Kind: models.KindPhoto, FileID: "f", Stage: stage, Err: err}
	}

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"no photo", wrap(service.StageExtract, service.ErrNoPhoto), codes.InvalidArgument},
		{"cancelled download", wrap(service.StageDownload, &telegram.TransferError{Err: context.Canceled}), codes.Canceled},
		{"deadline", wrap(service.StageResolve, &telegram.RemoteServiceError{Err: context.DeadlineExceeded}), codes.DeadlineExceeded},
		{"not found", fmt.Errorf("get: %w", storage.ErrNotFound), codes.NotFound},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatus(tt.err)))
		})
	}
}

func TestToResponse(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := toResponse(&models.DocumentRecord{
		FileRecord: models.FileRecord{ID: "r", RemoteFileID: "f", SizeBytes: 3, Content: "c", CreatedAt: created},
		Name:       "n.txt",
		MimeType:   "text/plain",
	})
	assert.Equal(t, &RecordResponse{
		ID: "r", Kind: "document", RemoteFileID: "f", Name: "n.txt", MimeType: "text/plain",
		SizeBytes: 3, ContentRef: "c", CreatedAt: created,
	}, resp)
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	data, err := c.Marshal(&GetRecordRequest{ID: "abc"})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc"}`, string(data))

	var out GetRecordRequest
	assert.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, "abc", out.ID)
	assert.Equal(t, "json", c.Name())
}

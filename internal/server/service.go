package server

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/service"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/storage"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/telegram"
)

// Pipeline is the part of service.FileService the server needs.
type Pipeline interface {
	ProcessDocument(ctx context.Context, msg *tgbotapi.Message) (*models.DocumentRecord, error)
	ProcessPhoto(ctx context.Context, msg *tgbotapi.Message) (*models.PhotoRecord, error)
	GetRecord(ctx context.Context, id string) (models.Record, error)
}

type ingestServer struct {
	pipeline Pipeline
	sem      *semaphore.Weighted // bounds concurrent pipeline runs
	logger   *zap.Logger
}

func NewIngestServer(pipeline Pipeline, maxConcurrent int64, logger *zap.Logger) IngestServer {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ingestServer{
		pipeline: pipeline,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   logger,
	}
}

func (s *ingestServer) ProcessDocument(ctx context.Context, req *ProcessMessageRequest) (*RecordResponse, error) {
	if req.Message == nil {
		return nil, status.Error(codes.InvalidArgument, "message is required")
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	rec, err := s.pipeline.ProcessDocument(ctx, req.Message)
	if err != nil {
		return nil, toStatus(err)
	}
	return toResponse(rec), nil
}

func (s *ingestServer) ProcessPhoto(ctx context.Context, req *ProcessMessageRequest) (*RecordResponse, error) {
	if req.Message == nil {
		return nil, status.Error(codes.InvalidArgument, "message is required")
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	rec, err := s.pipeline.ProcessPhoto(ctx, req.Message)
	if err != nil {
		return nil, toStatus(err)
	}
	return toResponse(rec), nil
}

func (s *ingestServer) GetRecord(ctx context.Context, req *GetRecordRequest) (*RecordResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	rec, err := s.pipeline.GetRecord(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toResponse(rec), nil
}

func (s *ingestServer) acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.logger.Warn("gave up waiting for a pipeline slot", zap.Error(err))
		return status.FromContextError(err).Err()
	}
	return nil
}

// toStatus maps pipeline errors onto gRPC codes.
func toStatus(err error) error {
	var (
		failure  *service.UploadFailure
		remote   *telegram.RemoteServiceError
		decode   *telegram.ResponseDecodeError
		invalid  *telegram.InvalidURLError
		transfer *telegram.TransferError
		persist  *service.PersistenceError
	)

	code := codes.Internal
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, "record not found")
	case errors.As(err, &failure) && failure.Stage == service.StageExtract:
		code = codes.InvalidArgument
	case errors.As(err, &remote):
		code = codes.Unavailable
	case errors.As(err, &decode):
		code = codes.DataLoss
	case errors.As(err, &invalid):
		code = codes.FailedPrecondition
	case errors.As(err, &transfer):
		code = codes.Unavailable
	case errors.As(err, &persist):
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func toResponse(rec models.Record) *RecordResponse {
	base := rec.Base()
	resp := &RecordResponse{
		ID:           base.ID,
		Kind:         string(rec.Kind()),
		RemoteFileID: base.RemoteFileID,
		SizeBytes:    base.SizeBytes,
		ContentRef:   string(base.Content),
		CreatedAt:    base.CreatedAt,
	}
	if doc, ok := rec.(*models.DocumentRecord); ok {
		resp.Name = doc.Name
		resp.MimeType = doc.MimeType
	}
	return resp
}

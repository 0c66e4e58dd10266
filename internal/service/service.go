package service

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/observability"
	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/storage"
)

const tracerName = "github.com/PaulBabatuyi/FileIngest-gRPC/internal/service"

// Resolver turns a Telegram file id into a relative storage path.
type Resolver interface {
	Resolve(ctx context.Context, fileID string) (string, error)
}

// Downloader fetches the bytes behind a relative storage path.
type Downloader interface {
	Download(ctx context.Context, filePath string) ([]byte, error)
}

// FileService runs the ingest pipeline for one message per call:
// resolve, download, save content, build record, save record.
type FileService struct {
	resolver   Resolver
	downloader Downloader
	content    storage.ContentStore
	records    storage.RecordStore
	tx         storage.Transactor

	logger  *zap.Logger
	metrics *observability.PipelineMetrics
	tracer  trace.Tracer
}

type Option func(*FileService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *FileService) { s.logger = logger }
}

func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(s *FileService) { s.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *FileService) { s.tracer = tp.Tracer(tracerName) }
}

// WithAtomicPersistence saves content and record inside one transaction
// of tx instead of through the plain stores, so a failed record save
// leaves no blob behind.
func WithAtomicPersistence(tx storage.Transactor) Option {
	return func(s *FileService) { s.tx = tx }
}

func NewFileService(resolver Resolver, downloader Downloader, content storage.ContentStore, records storage.RecordStore, opts ...Option) *FileService {
	s := &FileService{
		resolver:   resolver,
		downloader: downloader,
		content:    content,
		records:    records,
		logger:     zap.NewNop(),
		tracer:     otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessDocument stores the document attached to msg and returns the
// persisted record. Every failure is an *UploadFailure.
func (s *FileService) ProcessDocument(ctx context.Context, msg *tgbotapi.Message) (*models.DocumentRecord, error) {
	if msg == nil || msg.Document == nil {
		return nil, s.reject(models.KindDocument, ErrNoDocument)
	}
	doc := msg.Document

	var rec *models.DocumentRecord
	err := s.run(ctx, job{
		kind:   models.KindDocument,
		fileID: doc.FileID,
		inspect: func(data []byte) {
			s.checkMIME(doc, data)
		},
		build: func(ref models.ContentRef) models.Record {
			rec = BuildDocument(doc, ref)
			return rec
		},
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ProcessPhoto stores the first size variant of the photo attached to msg.
// The other variants are ignored.
func (s *FileService) ProcessPhoto(ctx context.Context, msg *tgbotapi.Message) (*models.PhotoRecord, error) {
	if msg == nil || len(msg.Photo) == 0 {
		return nil, s.reject(models.KindPhoto, ErrNoPhoto)
	}
	photo := msg.Photo[0]

	var rec *models.PhotoRecord
	err := s.run(ctx, job{
		kind:   models.KindPhoto,
		fileID: photo.FileID,
		build: func(ref models.ContentRef) models.Record {
			rec = BuildPhoto(photo, ref)
			return rec
		},
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetRecord reads back a persisted record.
func (s *FileService) GetRecord(ctx context.Context, id string) (models.Record, error) {
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "get record", Err: err}
	}
	return rec, nil
}

type job struct {
	kind    models.Kind
	fileID  string
	inspect func(data []byte)
	build   func(ref models.ContentRef) models.Record
}

func (s *FileService) reject(kind models.Kind, cause error) error {
	s.metrics.ObserveOutcome(string(kind), string(StageExtract))
	return &UploadFailure{Kind: kind, Stage: StageExtract, Err: cause}
}

func (s *FileService) run(ctx context.Context, j job) (err error) {
	ctx, span := s.tracer.Start(ctx, "ingest "+string(j.kind), trace.WithAttributes(
		attribute.String("telegram.file_id", j.fileID),
	))
	defer span.End()

	log := s.logger.With(zap.String("kind", string(j.kind)), zap.String("file_id", j.fileID))
	fail := func(stage Stage, cause error) error {
		span.RecordError(cause)
		span.SetStatus(codes.Error, string(stage))
		s.metrics.ObserveOutcome(string(j.kind), string(stage))
		log.Warn("ingest failed", zap.String("stage", string(stage)), zap.Error(cause))
		return &UploadFailure{Kind: j.kind, FileID: j.fileID, Stage: stage, Err: cause}
	}

	var filePath string
	if err := s.stage(ctx, StageResolve, func(ctx context.Context) error {
		var err error
		filePath, err = s.resolver.Resolve(ctx, j.fileID)
		return err
	}); err != nil {
		return fail(StageResolve, err)
	}

	var data []byte
	if err := s.stage(ctx, StageDownload, func(ctx context.Context) error {
		var err error
		data, err = s.downloader.Download(ctx, filePath)
		return err
	}); err != nil {
		return fail(StageDownload, err)
	}
	s.metrics.ObserveDownload(len(data))
	span.SetAttributes(attribute.Int("file.size", len(data)))

	if j.inspect != nil {
		j.inspect(data)
	}

	var rec models.Record
	persist := func(content storage.ContentStore, records storage.RecordStore) error {
		var ref models.ContentRef
		if err := s.stage(ctx, StageStoreContent, func(ctx context.Context) error {
			var err error
			ref, err = content.SaveContent(ctx, data)
			return err
		}); err != nil {
			return &stageError{stage: StageStoreContent, err: &PersistenceError{Op: "save content", Err: err}}
		}

		// content is saved from here on; a failing record save orphans it
		// unless persist runs inside a transaction.
		rec = j.build(ref)
		if err := s.stage(ctx, StageStoreRecord, func(ctx context.Context) error {
			return records.SaveRecord(ctx, rec)
		}); err != nil {
			if s.tx == nil {
				log.Warn("content saved without a record", zap.String("content_ref", string(ref)))
			}
			return &stageError{stage: StageStoreRecord, err: &PersistenceError{Op: "save record", Err: err}}
		}
		return nil
	}

	if s.tx != nil {
		err = s.tx.InTx(ctx, persist)
	} else {
		err = persist(s.content, s.records)
	}
	if err != nil {
		var se *stageError
		if errors.As(err, &se) {
			return fail(se.stage, se.err)
		}
		// the transaction itself failed to begin or commit
		return fail(StageStoreRecord, &PersistenceError{Op: "transaction", Err: err})
	}

	base := rec.Base()
	span.SetAttributes(attribute.String("record.id", base.ID))
	s.metrics.ObserveOutcome(string(j.kind), "success")
	log.Info("file ingested",
		zap.String("record_id", base.ID),
		zap.String("content_ref", string(base.Content)),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// stage times fn and runs it in a child span.
func (s *FileService) stage(ctx context.Context, name Stage, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, string(name))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveStage(string(name), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *FileService) checkMIME(doc *tgbotapi.Document, data []byte) {
	detected, ok := CheckContentType(data, doc.MimeType)
	if ok {
		return
	}
	s.metrics.MimeMismatch()
	s.logger.Warn("declared mime type does not match content",
		zap.String("file_id", doc.FileID),
		zap.String("declared", doc.MimeType),
		zap.String("detected", detected),
	)
}

// stageError carries the failing persistence stage out of a transaction.
type stageError struct {
	stage Stage
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }

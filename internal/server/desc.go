package server

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"google.golang.org/grpc"
)

const (
	ServiceName = "fileingest.v1.FileIngestService"

	methodProcessDocument = "/" + ServiceName + "/ProcessDocument"
	methodProcessPhoto    = "/" + ServiceName + "/ProcessPhoto"
	methodGetRecord       = "/" + ServiceName + "/GetRecord"
)

// ProcessMessageRequest carries one inbound Telegram message in Bot API
// JSON form.
type ProcessMessageRequest struct {
	Message *tgbotapi.Message `json:"message"`
}

type GetRecordRequest struct {
	ID string `json:"id"`
}

// RecordResponse is a persisted record. Name and MimeType are set for
// documents only.
type RecordResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	RemoteFileID string    `json:"remote_file_id"`
	Name         string    `json:"name,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentRef   string    `json:"content_ref"`
	CreatedAt    time.Time `json:"created_at"`
}

// IngestServer is the server API for FileIngestService.
type IngestServer interface {
	ProcessDocument(context.Context, *ProcessMessageRequest) (*RecordResponse, error)
	ProcessPhoto(context.Context, *ProcessMessageRequest) (*RecordResponse, error)
	GetRecord(context.Context, *GetRecordRequest) (*RecordResponse, error)
}

// RegisterIngestServer registers srv on s.
func RegisterIngestServer(s grpc.ServiceRegistrar, srv IngestServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessDocument", Handler: processDocumentHandler},
		{MethodName: "ProcessPhoto", Handler: processPhotoHandler},
		{MethodName: "GetRecord", Handler: getRecordHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func processDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProcessMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestServer).ProcessDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodProcessDocument}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IngestServer).ProcessDocument(ctx, req.(*ProcessMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func processPhotoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProcessMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestServer).ProcessPhoto(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodProcessPhoto}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IngestServer).ProcessPhoto(ctx, req.(*ProcessMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getRecordHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetRecordRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestServer).GetRecord(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetRecord}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IngestServer).GetRecord(ctx, req.(*GetRecordRequest))
	}
	return interceptor(ctx, in, info, handler)
}

package server

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client calls FileIngestService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to target. A non-empty apiKey is sent
// as api-key metadata on every call.
func Dial(target, apiKey string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	if apiKey != "" {
		base = append(base, grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
			return invoker(ctx, method, req, reply, cc, opts...)
		}))
	}
	return grpc.NewClient(target, append(base, opts...)...)
}

func (c *Client) ProcessDocument(ctx context.Context, msg *tgbotapi.Message, opts ...grpc.CallOption) (*RecordResponse, error) {
	out := new(RecordResponse)
	if err := c.invoke(ctx, methodProcessDocument, &ProcessMessageRequest{Message: msg}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProcessPhoto(ctx context.Context, msg *tgbotapi.Message, opts ...grpc.CallOption) (*RecordResponse, error) {
	out := new(RecordResponse)
	if err := c.invoke(ctx, methodProcessPhoto, &ProcessMessageRequest{Message: msg}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRecord(ctx context.Context, id string, opts ...grpc.CallOption) (*RecordResponse, error) {
	out := new(RecordResponse)
	if err := c.invoke(ctx, methodGetRecord, &GetRecordRequest{ID: id}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

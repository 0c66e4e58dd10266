package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDKey = "x-request-id"

type requestIDCtxKey struct{}

// RequestIDInterceptor makes sure every call carries an x-request-id. A
// caller supplied id is kept; otherwise one is generated. The id is echoed
// back in the response header.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDKey); len(ids) > 0 {
				id = ids[0]
			}
		}
		if id == "" {
			id = uuid.New().String()
		}

		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, id))
		return handler(context.WithValue(ctx, requestIDCtxKey{}, id), req)
	}
}

// RequestID returns the id attached by RequestIDInterceptor, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

// UnaryLoggingInterceptor logs unary RPC calls with timing and errors
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()

		// Call the handler
		resp, err := handler(ctx, req)

		code := status.Code(err)
		duration := time.Since(start)

		// caller mistakes are not server errors
		logLevel := zapcore.InfoLevel
		switch code {
		case codes.OK:
		case codes.InvalidArgument, codes.NotFound, codes.Unauthenticated, codes.Canceled:
			logLevel = zapcore.WarnLevel
		default:
			logLevel = zapcore.ErrorLevel
		}

		if ce := logger.Check(logLevel, "unary RPC"); ce != nil {
			ce.Write(
				zap.String("method", info.FullMethod),
				zap.String("request_id", RequestID(ctx)),
				zap.Duration("duration", duration),
				zap.String("code", code.String()),
				zap.Error(err),
			)
		}

		return resp, err
	}
}

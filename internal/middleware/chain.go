package middleware

import (
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServerInterceptors returns the unary chain for the ingest server, outermost
// first: panic recovery, request ids, metrics, logging, auth.
func ServerInterceptors(logger *zap.Logger, metrics *grpcprom.ServerMetrics, apiKeys []string) grpc.ServerOption {
	interceptors := []grpc.UnaryServerInterceptor{
		recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(func(p any) error {
			logger.Error("panic in handler", zap.Any("panic", p), zap.Stack("stack"))
			return status.Error(codes.Internal, "internal error")
		})),
		RequestIDInterceptor(),
	}
	if metrics != nil {
		interceptors = append(interceptors, metrics.UnaryServerInterceptor())
	}
	interceptors = append(interceptors,
		UnaryLoggingInterceptor(logger),
		APIKeyAuth(apiKeys),
	)
	return grpc.ChainUnaryInterceptor(interceptors...)
}

package middleware

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// APIKeyAuth validates the api-key metadata against keys. With no keys
// configured every call is let through.
func APIKeyAuth(keys []string) grpc.UnaryServerInterceptor {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if len(allowed) == 0 {
			return handler(ctx, req)
		}

		// Extract API key from metadata
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing api-key")
		}

		if !validKey(allowed, []byte(apiKeys[0])) {
			return nil, status.Error(codes.Unauthenticated, "invalid api-key")
		}

		return handler(ctx, req)
	}
}

func validKey(allowed [][]byte, got []byte) bool {
	for _, k := range allowed {
		if subtle.ConstantTimeCompare(k, got) == 1 {
			return true
		}
	}
	return false
}

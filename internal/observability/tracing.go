package observability

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/config"
)

const serviceName = "fileingest"

// InitTracerProvider initializes OpenTelemetry tracing. With tracing
// enabled spans go to w (stdout when nil) through the stdout exporter;
// otherwise spans are created but never exported.
func InitTracerProvider(ctx context.Context, cfg config.TracingConfig, w io.Writer, logger *zap.Logger) (*trace.TracerProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []trace.TracerProviderOption{trace.WithResource(res)}

	if cfg.Enabled {
		if w == nil {
			w = os.Stdout
		}
		exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
		if cfg.Pretty {
			exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(exporterOpts...)
		if err != nil {
			logger.Error("failed to create trace exporter", zap.Error(err))
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// ShutdownTracerProvider flushes and stops the tracer provider
func ShutdownTracerProvider(ctx context.Context, tp *trace.TracerProvider, logger *zap.Logger) {
	if err := tp.ForceFlush(ctx); err != nil {
		logger.Error("failed to flush traces", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer provider", zap.Error(err))
	}
}

// GRPCServerOption returns the otelgrpc stats handler bound to tp
func GRPCServerOption(tp *trace.TracerProvider) grpc.ServerOption {
	return grpc.StatsHandler(otelgrpc.NewServerHandler(otelgrpc.WithTracerProvider(tp)))
}

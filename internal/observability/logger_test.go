package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/config"
)

func TestInitLogger(t *testing.T) {
	logger, err := InitLogger(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = InitLogger(config.LogConfig{Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = InitLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestInitTracerProviderExports(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	tp, err := InitTracerProvider(ctx, config.TracingConfig{Enabled: true}, &buf, nil)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "ingest")
	span.SetStatus(codes.Ok, "")
	span.End()

	ShutdownTracerProvider(ctx, tp, zap.NewNop())
	assert.Contains(t, buf.String(), `"Name":"ingest"`)
}

func TestInitTracerProviderDisabled(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	tp, err := InitTracerProvider(ctx, config.TracingConfig{}, &buf, nil)
	require.NoError(t, err)
	_, span := tp.Tracer("test").Start(ctx, "ingest")
	span.End()

	ShutdownTracerProvider(ctx, tp, zap.NewNop())
	assert.Empty(t, buf.String())
	assert.NotNil(t, GRPCServerOption(tp))
}

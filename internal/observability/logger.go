package observability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Logger is the process-wide logger. It discards everything until
// InitLogger runs, so packages can log unconditionally.
var Logger = zap.NewNop()

// InitLogger points Logger at logFile as JSON lines. The calculator talks to
// the user on stdout, so logs never go there.
func InitLogger(logFile string) error {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logFile}
	cfg.ErrorOutputPaths = []string{logFile}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	Logger = logger
	return nil
}

func SyncLogger() {
	_ = Logger.Sync()
}

// LoggerWithTrace returns a child logger carrying the session id from ctx
// and, when a span is active, its trace_id and span_id.
//
// ctx itself is attached as zap.Any("context", ctx): the otelzap bridge
// picks up any field holding a context.Context and emits the OTLP record
// with it, which fills the native TraceID/SpanID of the exported log.
func LoggerWithTrace(ctx context.Context) *zap.Logger {
	logger := Logger
	if id := SessionIDFromContext(ctx); id != "" {
		logger = logger.With(zap.String("session_id", id))
	}

	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return logger
	}

	return logger.With(
		zap.Any("context", ctx),
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}

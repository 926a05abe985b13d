package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Loggers are no-ops until InitLogger runs.
var (
	AppLogger     = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger   = zap.NewNop()
	ErrorLogger   = zap.NewNop()
)

type Options struct {
	Dir     string
	Level   string
	Console bool
}

type traceIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey{}).(string)
	return traceID
}

func InitLogger(opts Options) error {
	if opts.Dir == "" {
		opts.Dir = "./logs"
	}
	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	newLogger := func(file string, maxSize, maxAge int, lvl zapcore.Level) *zap.Logger {
		core := zapcore.NewCore(encoder,
			zapcore.AddSync(&lumberjack.Logger{
				Filename: filepath.Join(opts.Dir, file), MaxSize: maxSize, MaxAge: maxAge, Compress: true,
			}),
			lvl,
		)
		if opts.Console {
			console := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), lvl)
			core = zapcore.NewTee(core, console)
		}
		return zap.New(core)
	}

	AppLogger = newLogger("app.log", 100, 28, level)
	RequestLogger = newLogger("request.log", 50, 7, level)
	TimerLogger = newLogger("timer.log", 50, 7, level)
	ErrorLogger = newLogger("error.log", 100, 30, zap.ErrorLevel)
	return nil
}

// Sync flushes every logger; call it before the process exits.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger} {
		_ = l.Sync()
	}
}

// LogDuration starts a timer and returns the func that writes the elapsed
// milliseconds, with the context trace id, to the timer log. Call it deferred.
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	traceID := TraceIDFromContext(ctx)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		TimerLogger.Info("Function timed", fields...)
	}
}

package logger

import (
	"context"
	"strings"

	apperrors "github.com/contactbook/contactbook/internal/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how the process logger is built.
type Config struct {
	Level       string
	Development bool
}

// Logger is a context-aware wrapper around zap. Every entry carries the
// request id found in the context, if any.
type Logger struct {
	z *zap.Logger
}

var defaultLogger = &Logger{z: zap.NewNop()}

// New builds a JSON logger (or a console logger in development mode).
func New(cfg Config) (*Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.CallerKey = "caller"

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the default logger
func Default() *Logger {
	return defaultLogger
}

// ParseLevel maps a textual level to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithComponent creates a child logger tagged with the component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{z: l.z.With(zap.String("component", component))}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) withContext(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	if requestID := apperrors.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.z.Debug(msg, l.withContext(ctx, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.z.Info(msg, l.withContext(ctx, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.z.Warn(msg, l.withContext(ctx, fields)...)
}

// Error logs an error message. err may be nil.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
		if appErr, ok := err.(*apperrors.AppError); ok {
			fields = append(fields, zap.String("error_code", appErr.Code))
		}
	}
	l.z.Error(msg, l.withContext(ctx, fields)...)
}

// Package-level convenience functions

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	defaultLogger.Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	defaultLogger.Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	defaultLogger.Error(ctx, msg, err, fields...)
}

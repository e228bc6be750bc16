package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the process-wide logger. It is a no-op until Init runs so packages can log from tests.
	Log = zap.NewNop()
	// Sugar is the sugared form of Log.
	Sugar = Log.Sugar()
	// helpers reports the caller of Debug, Info and the rest instead of this file.
	helpers = Log.WithOptions(zap.AddCallerSkip(1))
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Init builds the global logger. JSON output uses the production config, which samples
// repeated entries; text output is the colourised development config.
func Init(cfg *Config) error {
	var zapConfig zap.Config

	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	l, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}
	setLogger(l)
	return nil
}

func setLogger(l *zap.Logger) {
	Log = l
	Sugar = l.Sugar()
	helpers = l.WithOptions(zap.AddCallerSkip(1))
}

// InitDefault initializes the logger from LOG_LEVEL / LOG_FORMAT.
func InitDefault() {
	cfg := &Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
	if err := Init(cfg); err != nil {
		l, _ := zap.NewProduction()
		setLogger(l)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FromContext returns Log annotated with the request id, if any.
func FromContext(ctx context.Context) *zap.Logger {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		return Log.With(zap.String("request_id", requestID))
	}
	return Log
}

func Debug(msg string, fields ...zap.Field) {
	helpers.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	helpers.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	helpers.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	helpers.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	helpers.Fatal(msg, fields...)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Log.With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Log.Sync()
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "ISOFT_LOG_LEVEL"

// maxPayloadLog caps how much of a raw payload ends up in a log line
const maxPayloadLog = 256

// Initialize creates a new logger with the specified level.
// If level is empty, it checks ISOFT_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel, err := parseLevel(level)
	if err != nil {
		return err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the ISOFT_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", level)
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogDeviceRequest logs one HTTP exchange with the device
func LogDeviceRequest(method string, register string, statusCode int, duration time.Duration) {
	Debug("Device request",
		zap.String("method", method),
		zap.String("register", register),
		zap.Int("status_code", statusCode),
		zap.Duration("duration", duration),
	)
}

// LogRawPayload logs a raw register payload (useful for firmware differences)
func LogRawPayload(register string, payload string) {
	if len(payload) > maxPayloadLog {
		payload = payload[:maxPayloadLog] + "..."
	}
	Debug("Raw payload",
		zap.String("register", register),
		zap.Int("length", len(payload)/2),
		zap.String("hex", payload),
	)
}

// LogReadFailure logs a measurement that produced no value this cycle
func LogReadFailure(measurement string, register string, err error) {
	Warn("No value this cycle",
		zap.String("measurement", measurement),
		zap.String("register", register),
		zap.Error(err),
	)
}

// LogCommand logs the outcome of a device command
func LogCommand(command string, register string, err error) {
	if err != nil {
		Error("Device command failed",
			zap.String("command", command),
			zap.String("register", register),
			zap.Error(err),
		)
		return
	}
	Info("Device command accepted",
		zap.String("command", command),
		zap.String("register", register),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

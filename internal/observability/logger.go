package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLILogger is used by CLI commands (console encoding).
	CLILogger *zap.Logger

	// ServerLogger is used by the HTTP server (JSON encoding).
	ServerLogger *zap.Logger
)

// InitCLILogger initializes the CLI logger. Verbose lowers the level to
// debug.
func InitCLILogger(verbose bool) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build cli logger: %w", err)
	}

	CLILogger = logger
	return nil
}

// InitServerLogger initializes the structured server logger.
func InitServerLogger(level, format string) error {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build server logger: %w", err)
	}

	ServerLogger = logger
	return nil
}

// Logger returns the active logger, preferring the server logger when both
// are initialized, and never returns nil.
func Logger() *zap.Logger {
	if ServerLogger != nil {
		return ServerLogger
	}
	if CLILogger != nil {
		return CLILogger
	}
	return zap.NewNop()
}

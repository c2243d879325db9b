package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/pkpd-api/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance
func InitLogger(logDir string) {
	InitLoggerWithOptions(DefaultOptions(logDir))
}

// InitLoggerWithConfig initializes the global logger from the application
// configuration. verbose keeps info logs on the console in the test environment.
func InitLoggerWithConfig(cfg *config.Config, verbose bool) {
	opts := DefaultOptions(cfg.LogDir)
	opts.ConsoleLevel = GetConsoleLogLevel(cfg.Env, cfg.LogLevel, verbose)
	opts.RetentionWeeks = cfg.LogRetentionWeeks
	opts.MaxFileSize = cfg.MaxLogFileSize
	InitLoggerWithOptions(opts)
}

// InitLoggerWithOptions initializes the global logger instance
func InitLoggerWithOptions(opts Options) {
	logger, rotating := NewLogger(opts)
	DefaultLoggingService = &LoggingService{
		Logger:   logger,
		rotating: rotating,
	}
	slog.SetDefault(logger)
}

// Close flushes and closes the rotating log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return nil
	}
	return DefaultLoggingService.rotating.Close()
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. Tests stay quiet unless verbose,
// whatever LOG_LEVEL says. Elsewhere an explicit LOG_LEVEL wins, then prod and
// staging default to warn and dev to info.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the JSON log file, which keeps everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}

// logger returns the global logger or, before initialization, a console
// fallback at the given level
func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return DefaultLoggingService.Logger
}

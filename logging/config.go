package logging

import (
	"log/slog"
	"os"
	"time"
)

// Options configures the global logger
type Options struct {
	Dir            string
	ConsoleLevel   slog.Level
	FileLevel      slog.Level
	RetentionWeeks int
	MaxFileSize    int64
}

// DefaultOptions returns info console level, debug file level, 4 weeks
// retention and 100MB files in logDir
func DefaultOptions(logDir string) Options {
	return Options{
		Dir:            logDir,
		ConsoleLevel:   slog.LevelInfo,
		FileLevel:      GetFileLogLevel(),
		RetentionWeeks: 4,
		MaxFileSize:    100 * 1024 * 1024,
	}
}

// NewLogger builds a logger writing text to the console and JSON to a weekly
// rotating file in opts.Dir. The returned RotatingLogger must be closed on
// shutdown; it is nil when only the console could be set up.
func NewLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: opts.ConsoleLevel,
	})
	consoleOnly := func(msg string, err error) (*slog.Logger, *RotatingLogger) {
		logger := slog.New(consoleHandler)
		logger.Error(msg, "dir", opts.Dir, "error", err)
		return logger, nil
	}

	if opts.Dir == "" {
		return slog.New(consoleHandler), nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return consoleOnly("Failed to create logs directory", err)
	}

	rotating := NewRotatingLogger(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	if err := rotating.open(time.Now()); err != nil {
		return consoleOnly("Failed to open log file", err)
	}
	rotating.startPruning(24 * time.Hour)

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: opts.FileLevel,
	})

	return slog.New(slog.NewMultiHandler(consoleHandler, fileHandler)), rotating
}

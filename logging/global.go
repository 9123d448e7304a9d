package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/rxu-api/config"
)

// LoggingService owns the process logger and the rotating file behind it
type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

// Options configures the process logger. An empty Dir logs to the console only.
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string // overrides the environment default when set
	Verbose        bool   // raises the console level in the test environment
	RetentionWeeks int
	MaxFileSize    int64
}

var DefaultLoggingService *LoggingService

// fallback serves the package functions before InitLogger ran
var fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// InitLogger initializes the global logger with the development defaults
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{Dir: logDir})
}

// InitLoggerWithOptions replaces the global logger, closing the previous one
func InitLoggerWithOptions(opts Options) {
	svc := NewLoggingService(opts)

	previous := DefaultLoggingService
	DefaultLoggingService = svc
	slog.SetDefault(svc.Logger)

	if previous != nil {
		_ = previous.Close()
	}
}

// NewLoggingService builds a console text handler and, when a directory is
// given, a JSON handler on a rotating file. File setup failures fall back to
// console only logging.
func NewLoggingService(opts Options) *LoggingService {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.Dir == "" {
		return &LoggingService{Logger: slog.New(console)}
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = 100 * 1024 * 1024
	}

	rl := NewRotatingLoggerWithSizeLimit(opts.Dir, retention, maxSize)
	if err := rl.Open(); err != nil {
		logger := slog.New(console)
		logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
		return &LoggingService{Logger: logger}
	}

	file := slog.NewJSONHandler(rl, &slog.HandlerOptions{Level: GetFileLogLevel()})

	return &LoggingService{
		Logger:   slog.New(&multiHandler{handlers: []slog.Handler{console, file}}),
		rotating: rl,
	}
}

// Close releases the log file, if any
func (s *LoggingService) Close() error {
	if s == nil || s.rotating == nil {
		return nil
	}
	return s.rotating.Close()
}

// Close closes the global logger's file. Logging keeps working on the console.
func Close() error {
	if DefaultLoggingService == nil {
		return nil
	}
	return DefaultLoggingService.Close()
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// GetConsoleLogLevel picks the console level. The test environment stays at
// error unless verbose, whatever LOG_LEVEL says.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if level != "" {
		return parseLogLevel(level)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is the level of the JSON file handler: everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

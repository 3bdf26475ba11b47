package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level         string // debug, info, warn, error
	Format        string // json, pretty
	Dir           string // empty disables file output
	RotationSize  int    // MB
	RetentionDays int
	ServiceName   string
}

// Init configures the global zerolog logger
func Init(cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	writers, err := buildWriters(cfg)
	if err != nil {
		return err
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger()

	log.Info().
		Str("level", level.String()).
		Str("format", cfg.Format).
		Bool("file_enabled", cfg.Dir != "").
		Msg("Logger initialized")
	return nil
}

func buildWriters(cfg Config) ([]io.Writer, error) {
	var writers []io.Writer
	if cfg.Format == "pretty" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.Dir == "" {
		return writers, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	writers = append(writers, rotatingFile(cfg, "app.log"))
	writers = append(writers, errorOnly{rotatingFile(cfg, "error.log")})
	return writers, nil
}

func rotatingFile(cfg Config, name string) *lumberjack.Logger {
	size := cfg.RotationSize
	if size <= 0 {
		size = 100
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, name),
		MaxSize:    size,
		MaxAge:     cfg.RetentionDays,
		MaxBackups: 10,
		Compress:   true,
	}
}

// errorOnly forwards error-and-above events, drops the rest
type errorOnly struct {
	w io.Writer
}

func (e errorOnly) Write(p []byte) (int, error) {
	return e.w.Write(p)
}

func (e errorOnly) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}

// NewAccessLogger returns a logger for HTTP access lines, writing to
// access.log under dir or to the global logger when dir is empty
func NewAccessLogger(dir string, rotationSize, retentionDays int) zerolog.Logger {
	if dir == "" {
		return log.Logger
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn().Err(err).Msg("Failed to create access log directory, using default logger")
		return log.Logger
	}

	cfg := Config{Dir: dir, RotationSize: rotationSize, RetentionDays: retentionDays}
	return zerolog.New(rotatingFile(cfg, "access.log")).With().
		Timestamp().
		Str("type", "access").
		Logger()
}

// Package logging builds the process-wide slog logger. Output always goes
// to stdout; when a log file is configured the same stream is mirrored
// into a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the handler format, the minimum level and the optional
// rotated log file.
type Options struct {
	Level          slog.Level
	Format         string // "json" (default) or "text"
	File           string // empty disables file output
	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_FILE and the LOG_FILE_MAX_*
// rotation knobs. Unset or unparseable values fall back to defaults.
func FromEnv() Options {
	opts := Options{
		Level:          slog.LevelInfo,
		Format:         "json",
		File:           os.Getenv("LOG_FILE"),
		FileMaxSizeMB:  100,
		FileMaxBackups: 3,
		FileMaxAgeDays: 28,
	}
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(s)); err == nil {
			opts.Level = lvl
		}
	}
	if s := os.Getenv("LOG_FORMAT"); s != "" {
		opts.Format = strings.ToLower(strings.TrimSpace(s))
	}
	opts.FileMaxSizeMB = intEnv("LOG_FILE_MAX_SIZE_MB", opts.FileMaxSizeMB)
	opts.FileMaxBackups = intEnv("LOG_FILE_MAX_BACKUPS", opts.FileMaxBackups)
	opts.FileMaxAgeDays = intEnv("LOG_FILE_MAX_AGE_DAYS", opts.FileMaxAgeDays)
	return opts
}

// New builds a logger from opts.
func New(opts Options) *slog.Logger {
	return slog.New(handler(output(opts), opts))
}

func output(opts Options) io.Writer {
	if opts.File == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.FileMaxSizeMB,
		MaxBackups: opts.FileMaxBackups,
		MaxAge:     opts.FileMaxAgeDays,
	})
}

func handler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.Format == "text" {
		return slog.NewTextHandler(w, ho)
	}
	return slog.NewJSONHandler(w, ho)
}

func intEnv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

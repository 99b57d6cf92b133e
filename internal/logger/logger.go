// Package logger wires the process-wide slog logger: a colorized text
// handler on stdout plus an optional rotated file handler.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes logging destinations for the watcher.
// If File is empty and Dir is set, the file will be Dir/marketwatch.log.
type Config struct {
	Level      string `toml:"level" mapstructure:"level"` // debug|info|warn|error
	Dir        string `toml:"dir" mapstructure:"dir"`
	File       string `toml:"file" mapstructure:"file"` // explicit path overrides Dir
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// FileWriter returns the rotated log writer, or nil when file logging is not
// configured.
func (c Config) FileWriter() io.WriteCloser {
	path := c.File
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, "marketwatch.log")
	}
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// Setup installs the default slog logger according to config and returns it.
func Setup(c Config) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{NewColorTextHandler(os.Stdout, opts, true)}
	if w := c.FileWriter(); w != nil {
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = fanoutHandler(handlers)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

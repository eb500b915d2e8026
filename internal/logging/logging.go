// Package logging builds the process logger: a logrus text logger that
// mirrors every line to the console and an append-only log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config selects the log destination and verbosity.
type Config struct {
	// File is appended to; empty logs to the console only.
	File  string `koanf:"file"`
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{File: "logs/bot.log", Level: "info"}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to console and, when cfg.File is set, to
// that file. The returned closer releases the file.
func New(cfg Config, console io.Writer) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = l
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	if cfg.File == "" {
		log.SetOutput(console)
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(console, f))
	return log, f, nil
}

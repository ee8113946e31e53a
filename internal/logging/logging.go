// Package logging builds the structured loggers used across pilot2048.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vovakirdan/pilot2048/internal/config"
)

// New returns a logger writing to stderr, or to a rolling file when
// cfg.File is set. The returned closer releases the file.
func New(cfg config.LogConfig, prefix string) (*log.Logger, io.Closer) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		roller := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out, closer = roller, roller
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          prefix,
		Level:           ParseLevel(cfg.Level),
	})
	if cfg.File != "" {
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger, closer
}

// ParseLevel maps a config level to a log level. Unknown levels are info.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

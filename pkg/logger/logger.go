// Package logger builds the zerolog loggers used across the mapper and CLI.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// LogBuild collects logger settings before Make.
type LogBuild struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

// New starts a logger definition writing to stderr at warn level.
func New() *LogBuild {
	return &LogBuild{
		writer: os.Stderr,
		level:  zerolog.WarnLevel,
	}
}

// FromWriter sends output to w.
func (b *LogBuild) FromWriter(w io.Writer) *LogBuild {
	b.writer = w
	return b
}

// FromPath appends output to the file at path.
func (b *LogBuild) FromPath(path string) *LogBuild {
	b.path = path
	return b
}

// Level sets the minimum level by name (debug, info, warn, error). Unknown names keep the current level.
func (b *LogBuild) Level(name string) *LogBuild {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name))); err == nil && name != "" {
		b.level = lvl
	}
	return b
}

// Make builds the logger.
func (b *LogBuild) Make() (zerolog.Logger, error) {
	w := b.writer
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), err
		}
		w = zerolog.SyncWriter(f)
	}
	return zerolog.New(w).Level(b.level).With().Timestamp().Logger(), nil
}

// Default is the logger models use when none is configured.
func Default() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

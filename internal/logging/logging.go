// Package logging builds the process-wide logger used across the CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	// Level is the minimum severity to emit (debug, info, warn, error).
	Level string

	// File, when non-empty, duplicates output to a size-rotated log file.
	File string

	// Quiet suppresses console output entirely; file output still applies.
	Quiet bool
}

// New builds a logrus logger per the options. Unknown levels fall back to
// info rather than failing startup.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	var sinks []io.Writer
	if !opts.Quiet {
		sinks = append(sinks, os.Stderr)
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err == nil {
			sinks = append(sinks, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     30, // days
				Compress:   true,
			})
		}
	}

	switch len(sinks) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(sinks[0])
	default:
		log.SetOutput(io.MultiWriter(sinks...))
	}

	return log
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide zerolog logger.
//
// Diagnostics go to a rotating log file so they never interleave with a
// streamed response. --verbose additionally mirrors them to stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/SamuelBurac/rye/internal/config"
)

// DefaultFileName is the log file created in the config directory.
const DefaultFileName = "rye.log"

// Options adjusts Init beyond what the config file holds.
type Options struct {
	// Verbose lowers the level to debug (unless trace) and mirrors output to
	// Stderr.
	Verbose bool

	// Stderr receives console output when Verbose is set. Defaults to
	// os.Stderr.
	Stderr io.Writer
}

// Init points the global logger at the configured destinations and sets the
// global level. The returned closer releases the log file.
func Init(cfg config.LogConfig, opts Options) (io.Closer, error) {
	level := strings.ToLower(cfg.Level)
	if opts.Verbose && level != "trace" {
		level = "debug"
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)

	if lvl == zerolog.Disabled {
		log.Logger = zerolog.Nop()
		return io.NopCloser(nil), nil
	}

	path := cfg.File
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	var writers []io.Writer
	if strings.EqualFold(cfg.Format, "json") {
		writers = append(writers, file)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: file, NoColor: true})
	}

	if opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: stderr})
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	return file, nil
}

// ParseLevel maps a config level name to a zerolog level. An empty name is
// warn.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "", "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, errors.Errorf("unknown log level %q", name)
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package obslog provides structured logging for the solver engine.
//
// It wraps the standard library's slog package with a small Level
// type and a Config that can direct output to stderr, an optional log
// file, or both. Every long-running component (the phase engine, the
// storage backend, the CLI) takes a *Logger and calls With to attach
// its own component name before logging, the way a single process
// made of several owned subsystems is expected to.
package obslog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Level is the minimum severity a Logger will emit.
//
// Levels are ordered Debug < Info < Warn < Error, matching slog.
type Level int

const (
	// LevelDebug is for verbose, development-time tracing (e.g. per-batch
	// progress inside a phase).
	LevelDebug Level = iota
	// LevelInfo is for normal operational events: phase transitions,
	// checkpoints, query results.
	LevelInfo
	// LevelWarn is for recoverable anomalies, such as a failed Phase 4
	// checkpoint write that the next tick retries.
	LevelWarn
	// LevelError is for failed operations that do not by themselves
	// terminate the process.
	LevelError
)

// String returns the level's name, or "UNKNOWN" for an out-of-range value.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. The zero value logs Debug and above to
// stderr in text form.
type Config struct {
	// Level is the minimum level emitted. The zero value is LevelDebug;
	// Default uses LevelInfo.
	Level Level

	// LogDir, if set, additionally writes JSON logs to
	// "{LogDir}/{Component}_{YYYY-MM-DD}.log". Supports a leading "~".
	LogDir string

	// Component names the owning subsystem (e.g. "engine", "store",
	// "cli") and is attached to every record.
	Component string

	// JSON selects JSON output on stderr. File output is always JSON.
	JSON bool

	// Quiet suppresses the stderr destination.
	Quiet bool
}

// Logger wraps an *slog.Logger and the open file handle (if any) so
// Close can release it.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New builds a Logger per cfg. The returned Logger should be closed
// with Close when the owning component shuts down.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlog()}

	l := &Logger{}
	var fileWriter io.Writer
	if cfg.LogDir != "" {
		dir := expandPath(cfg.LogDir)
		if err := os.MkdirAll(dir, 0o750); err == nil {
			component := cfg.Component
			if component == "" {
				component = "bobail-solve"
			}
			name := fmt.Sprintf("%s_%s.log", component, time.Now().Format("2006-01-02"))
			if f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640); err == nil {
				l.file = f
				fileWriter = f
			}
		}
	}

	// File output is always JSON; stderr output follows cfg.JSON. When
	// both are active and formats would differ, fall back to a single
	// JSON stream feeding both via io.MultiWriter rather than running
	// two independent handlers.
	var w io.Writer
	useJSON := cfg.JSON
	switch {
	case cfg.Quiet && fileWriter != nil:
		w = fileWriter
		useJSON = true
	case cfg.Quiet:
		w = io.Discard
	case fileWriter != nil:
		w = io.MultiWriter(os.Stderr, fileWriter)
		useJSON = true
	default:
		w = os.Stderr
	}

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", cfg.Component)})
	}

	l.slog = slog.New(handler)
	return l
}

// Default returns an Info-level, text-on-stderr Logger with no file
// output, suitable for the CLI's own top-level logger.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Component: "bobail-solve"})
}

// With returns a child Logger that attaches the given key-value pairs
// to every subsequent record. It shares the parent's file handle.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), file: l.file}
}

// Slog exposes the underlying *slog.Logger for code that already
// speaks slog (e.g. adapting badger's own Logger interface).
func (l *Logger) Slog() *slog.Logger { return l.slog }

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Close releases the log file, if one was opened. Safe to call on a
// Logger with no file (a no-op).
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

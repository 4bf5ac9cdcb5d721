// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package logging builds the process logger: a slog handler writing to
// stderr and, optionally, to a rotated log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nlpodyssey/intellimarket/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logging holds the process logger and its output.
type Logging struct {
	Logger *slog.Logger
	// Writer receives every log line. The HTTP server writes its access
	// log here too.
	Writer io.Writer
	Level  slog.Level

	file io.WriteCloser
}

// ParseLevel parses a level name. Besides the slog names it accepts
// WARNING and CRITICAL.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return slog.LevelInfo, nil
	case "WARNING":
		return slog.LevelWarn, nil
	case "CRITICAL", "FATAL":
		return slog.LevelError, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// New builds the logger described by cfg, writing to stderr and to
// cfg.File when set.
func New(cfg config.Log, stderr io.Writer) (*Logging, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	l := &Logging{Writer: stderr, Level: level}
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			LocalTime:  cfg.LocalTime,
		}
		l.Writer = io.MultiWriter(stderr, l.file)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(l.Writer, opts)
	case "", "text":
		handler = slog.NewTextHandler(l.Writer, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	l.Logger = slog.New(handler)
	return l, nil
}

// Install makes l the default slog logger and passes it to every setter,
// typically the SetLogger functions of the library packages.
func (l *Logging) Install(setters ...func(*slog.Logger)) {
	slog.SetDefault(l.Logger)
	for _, set := range setters {
		set(l.Logger)
	}
}

// Close closes the log file, if any.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

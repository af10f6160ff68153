// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the process logger for the scrivener binary.
//
// The output handler follows the CLI convention: text when stderr is a
// terminal, JSON when it is piped or captured by a service manager.
// When journal output is requested the records are also sent to the
// systemd journal with keys rewritten to journal field syntax.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
	"golang.org/x/term"
)

// Format names.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string

	// Format is auto, text or json. Empty means auto.
	Format string

	// Journal adds a systemd journal handler.
	Journal bool

	// Output receives formatted records. Nil means os.Stderr.
	Output io.Writer
}

// New returns a logger configured by options. A journal that cannot be
// reached is not an error: the logger keeps its primary output and
// records a warning there.
func New(options Options) (*slog.Logger, error) {
	level, err := ParseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	output := options.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOptions := &slog.HandlerOptions{Level: level}
	var primary slog.Handler
	switch options.Format {
	case FormatText:
		primary = slog.NewTextHandler(output, handlerOptions)
	case FormatJSON:
		primary = slog.NewJSONHandler(output, handlerOptions)
	case FormatAuto, "":
		if isTerminal(output) {
			primary = slog.NewTextHandler(output, handlerOptions)
		} else {
			primary = slog.NewJSONHandler(output, handlerOptions)
		}
	default:
		return nil, fmt.Errorf("logging: unknown format %q", options.Format)
	}

	if !options.Journal {
		return slog.New(primary), nil
	}

	journal, err := slogjournal.NewHandler(&slogjournal.Options{
		Level:        level,
		ReplaceGroup: toJournalKey,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			attr.Key = toJournalKey(attr.Key)
			return attr
		},
	})
	if err != nil {
		record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable, logging to stderr only", 0)
		record.AddAttrs(slog.String("error", err.Error()))
		_ = primary.Handle(context.Background(), record)
		return slog.New(primary), nil
	}

	return slog.New(slogmulti.Fanout(primary, journal)), nil
}

// ParseLevel maps a configuration level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", name)
	}
}

func isTerminal(output io.Writer) bool {
	file, ok := output.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// toJournalKey rewrites an attribute key into a journal field name:
// upper case, with anything outside [A-Z0-9] replaced by '_'.
func toJournalKey(key string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(key))
}

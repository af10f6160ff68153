// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lineedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/scrivener/lib/atomicfile"
)

// Recorder records a completed edit. *git.Repository satisfies it.
type Recorder interface {
	CommitAll(ctx context.Context, message string) error
}

// NopRecorder records nothing. It is used when git is disabled.
type NopRecorder struct{}

func (NopRecorder) CommitAll(context.Context, string) error { return nil }

// Error is any failed file operation: a missing file, a bad range, an
// I/O error, or a failed record.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lineedit: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is or wraps an *Error.
func IsError(err error) bool {
	var editError *Error
	return errors.As(err, &editError)
}

// Config configures NewEditor.
type Config struct {
	// Root is the workspace directory. Relative paths resolve
	// against it.
	Root string

	// Recorder receives one message per successful edit. Nil means
	// NopRecorder.
	Recorder Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Editor performs line edits inside a workspace.
type Editor struct {
	root     string
	recorder Recorder
	logger   *slog.Logger
}

// NewEditor returns an Editor for config.
func NewEditor(config Config) *Editor {
	recorder := config.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{root: config.Root, recorder: recorder, logger: logger}
}

// Resolve maps a user-supplied file name to a filesystem path.
func (e *Editor) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(e.root, name)
}

// WriteNew creates name holding content and a trailing newline. It
// fails if name already exists.
func (e *Editor) WriteNew(ctx context.Context, label, content, name string) error {
	path := e.Resolve(name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &Error{Op: "create", Path: name, Err: err}
	}
	_, writeErr := file.Write(normalize([]byte(content)))
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return &Error{Op: "write", Path: name, Err: err}
	}
	return e.record(ctx, name, fmt.Sprintf("Wrote register %s to file %s.", label, name))
}

// InsertAt puts content in front of line, or at the end of the file
// when line is past the last line.
func (e *Editor) InsertAt(ctx context.Context, label, content, name string, line int) error {
	data, err := e.read(name)
	if err != nil {
		return err
	}
	result, appended, err := insertText(data, content, line)
	if err != nil {
		return &Error{Op: "insert", Path: name, Err: err}
	}
	if err := e.replace(name, result); err != nil {
		return err
	}

	message := fmt.Sprintf("Injected contents of register %s into line %d of file %s.", label, line, name)
	if appended {
		message = fmt.Sprintf("Appended contents of register %s to file %s.", label, name)
	}
	return e.record(ctx, name, message)
}

// OverwriteRange replaces lines [start, end] with content. When the
// deletion leaves start past the last line, content is appended.
func (e *Editor) OverwriteRange(ctx context.Context, label, content, name string, start, end int) error {
	data, err := e.read(name)
	if err != nil {
		return err
	}
	trimmed, err := deleteLines(data, start, end)
	if err != nil {
		return &Error{Op: "overwrite", Path: name, Err: err}
	}
	result, _, err := insertText(trimmed, content, start)
	if err != nil {
		return &Error{Op: "overwrite", Path: name, Err: err}
	}
	if err := e.replace(name, result); err != nil {
		return err
	}
	return e.record(ctx, name, fmt.Sprintf(
		"Overwrote from line %d to line %d of file %s with contents of register %s.", start, end, name, label))
}

// DeleteRange removes lines [start, end].
func (e *Editor) DeleteRange(ctx context.Context, name string, start, end int) error {
	data, err := e.read(name)
	if err != nil {
		return err
	}
	result, err := deleteLines(data, start, end)
	if err != nil {
		return &Error{Op: "delete", Path: name, Err: err}
	}
	if err := e.replace(name, result); err != nil {
		return err
	}
	return e.record(ctx, name, fmt.Sprintf("Deleted from line %d to line %d of file %s.", start, end, name))
}

// ReadRange returns lines [start, end] with their numbers. The file is
// not modified.
func (e *Editor) ReadRange(name string, start, end int) ([]Line, error) {
	data, err := e.read(name)
	if err != nil {
		return nil, err
	}
	lines, err := selectLines(data, start, end)
	if err != nil {
		return nil, &Error{Op: "read", Path: name, Err: err}
	}
	return lines, nil
}

func (e *Editor) read(name string) ([]byte, error) {
	data, err := os.ReadFile(e.Resolve(name))
	if err != nil {
		return nil, &Error{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (e *Editor) replace(name string, data []byte) error {
	if err := atomicfile.Replace(e.Resolve(name), data); err != nil {
		return &Error{Op: "write", Path: name, Err: err}
	}
	return nil
}

func (e *Editor) record(ctx context.Context, name, message string) error {
	if err := e.recorder.CommitAll(ctx, message); err != nil {
		e.logger.Error("edit applied but not recorded",
			"file", name,
			"message", message,
			"error", err,
		)
		return &Error{Op: "record", Path: name, Err: err}
	}
	e.logger.Info("edit recorded", "file", name, "message", message)
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lineedit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingRecorder struct {
	messages []string
	err      error
}

func (r *recordingRecorder) CommitAll(_ context.Context, message string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, message)
	return nil
}

func newTestEditor(t *testing.T) (*Editor, *recordingRecorder, string) {
	t.Helper()
	root := t.TempDir()
	recorder := &recordingRecorder{}
	editor := NewEditor(Config{
		Root:     root,
		Recorder: recorder,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return editor, recorder, root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestWriteNew(t *testing.T) {
	editor, recorder, root := newTestEditor(t)
	ctx := context.Background()

	if err := editor.WriteNew(ctx, "shop", "milk\neggs", "list.txt"); err != nil {
		t.Fatalf("WriteNew: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "list.txt")); got != "milk\neggs\n" {
		t.Errorf("contents = %q", got)
	}
	if diff := cmp.Diff([]string{"Wrote register shop to file list.txt."}, recorder.messages); diff != "" {
		t.Errorf("recorded messages (-want +got):\n%s", diff)
	}
}

func TestWriteNewExistingPath(t *testing.T) {
	editor, recorder, root := newTestEditor(t)
	path := filepath.Join(root, "list.txt")
	writeFile(t, path, "keep me")

	err := editor.WriteNew(context.Background(), "shop", "milk", "list.txt")
	if !IsError(err) {
		t.Fatalf("WriteNew = %v, want *Error", err)
	}
	if !errors.Is(err, os.ErrExist) {
		t.Errorf("WriteNew error %v should wrap ErrExist", err)
	}
	if got := readFile(t, path); got != "keep me" {
		t.Errorf("existing file changed to %q", got)
	}
	if len(recorder.messages) != 0 {
		t.Errorf("failed write was recorded: %v", recorder.messages)
	}
}

func TestInsertAt(t *testing.T) {
	editor, recorder, root := newTestEditor(t)
	ctx := context.Background()
	path := filepath.Join(root, "notes.md")
	writeFile(t, path, "a\nb")

	if err := editor.InsertAt(ctx, "L", "X", "notes.md", 2); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	if got := readFile(t, path); got != "a\nX\nb\n" {
		t.Errorf("after inject = %q", got)
	}

	if err := editor.InsertAt(ctx, "L", "Z", "notes.md", 10); err != nil {
		t.Fatalf("InsertAt past end: %v", err)
	}
	if got := readFile(t, path); got != "a\nX\nb\nZ\n" {
		t.Errorf("after append = %q", got)
	}

	want := []string{
		"Injected contents of register L into line 2 of file notes.md.",
		"Appended contents of register L to file notes.md.",
	}
	if diff := cmp.Diff(want, recorder.messages); diff != "" {
		t.Errorf("recorded messages (-want +got):\n%s", diff)
	}
}

func TestInsertAtFailures(t *testing.T) {
	editor, recorder, root := newTestEditor(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(root, "notes.md"), "a\n")

	if err := editor.InsertAt(ctx, "L", "X", "missing.md", 1); !IsError(err) {
		t.Errorf("InsertAt on missing file = %v, want *Error", err)
	}
	if err := editor.InsertAt(ctx, "L", "X", "notes.md", 0); !IsError(err) {
		t.Errorf("InsertAt line 0 = %v, want *Error", err)
	}
	if got := readFile(t, filepath.Join(root, "notes.md")); got != "a\n" {
		t.Errorf("file changed to %q", got)
	}
	if len(recorder.messages) != 0 {
		t.Errorf("failures were recorded: %v", recorder.messages)
	}
}

func TestOverwriteRange(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		start, end int
		want       string
	}{
		{name: "single line", data: "a\nb\nc\n", start: 2, end: 2, want: "a\nX\nc\n"},
		{name: "range", data: "a\nb\nc\nd\n", start: 2, end: 3, want: "a\nX\nd\n"},
		{name: "last line becomes append", data: "a\nb\nc\n", start: 3, end: 3, want: "a\nb\nX\n"},
		{name: "range past end", data: "a\nb\nc\n", start: 2, end: 9, want: "a\nX\n"},
		{name: "start past end appends", data: "a\n", start: 4, end: 4, want: "a\nX\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			editor, recorder, root := newTestEditor(t)
			path := filepath.Join(root, "f.txt")
			writeFile(t, path, test.data)

			if err := editor.OverwriteRange(context.Background(), "L", "X", "f.txt", test.start, test.end); err != nil {
				t.Fatalf("OverwriteRange: %v", err)
			}
			if got := readFile(t, path); got != test.want {
				t.Errorf("contents = %q, want %q", got, test.want)
			}
			if len(recorder.messages) != 1 {
				t.Errorf("recorded %d messages, want 1", len(recorder.messages))
			}
		})
	}
}

func TestDeleteRange(t *testing.T) {
	editor, recorder, root := newTestEditor(t)
	path := filepath.Join(root, "f.txt")
	writeFile(t, path, "a\nb\nc\nd")

	if err := editor.DeleteRange(context.Background(), "f.txt", 2, 3); err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if got := readFile(t, path); got != "a\nd\n" {
		t.Errorf("contents = %q", got)
	}
	if diff := cmp.Diff([]string{"Deleted from line 2 to line 3 of file f.txt."}, recorder.messages); diff != "" {
		t.Errorf("recorded messages (-want +got):\n%s", diff)
	}

	if err := editor.DeleteRange(context.Background(), "f.txt", 0, 1); !IsError(err) {
		t.Errorf("DeleteRange from 0 = %v, want *Error", err)
	}
}

func TestEditsPreserveFileMode(t *testing.T) {
	editor, _, root := newTestEditor(t)
	path := filepath.Join(root, "run.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := editor.InsertAt(context.Background(), "L", "echo hi", "run.sh", 2); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o750 {
		t.Errorf("mode = %v, want 0750", info.Mode().Perm())
	}
}

func TestRecorderFailureKeepsEdit(t *testing.T) {
	editor, recorder, root := newTestEditor(t)
	recorder.err = errors.New("git commit failed")
	path := filepath.Join(root, "f.txt")
	writeFile(t, path, "a\n")

	err := editor.InsertAt(context.Background(), "L", "X", "f.txt", 1)
	var editError *Error
	if !errors.As(err, &editError) || editError.Op != "record" {
		t.Fatalf("InsertAt = %v, want *Error with Op record", err)
	}
	if got := readFile(t, path); got != "X\na\n" {
		t.Errorf("edit was rolled back: %q", got)
	}
}

func TestReadRange(t *testing.T) {
	editor, _, root := newTestEditor(t)
	writeFile(t, filepath.Join(root, "f.txt"), "1\n2\n3\n4\n5\n6\n7\n8\n")

	lines, err := editor.ReadRange("f.txt", 1, 6)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(lines) != 6 || lines[0].Number != 1 || lines[5].Text != "6" {
		t.Errorf("ReadRange(1, 6) = %v", lines)
	}

	if _, err := editor.ReadRange("absent.txt", 1, 6); !IsError(err) {
		t.Errorf("ReadRange on missing file = %v, want *Error", err)
	}
}

func TestResolve(t *testing.T) {
	editor := NewEditor(Config{Root: "/srv/notes"})
	if got := editor.Resolve("todo/today.md"); got != "/srv/notes/todo/today.md" {
		t.Errorf("Resolve relative = %q", got)
	}
	if got := editor.Resolve("/etc/motd"); got != "/etc/motd" {
		t.Errorf("Resolve absolute = %q", got)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLinesRunsInDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	lines, err := NewRunner(dir).Lines(context.Background(), "ls")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, lines); diff != "" {
		t.Errorf("ls output mismatch (-want +got):\n%s", diff)
	}
}

func TestLinesEmptyDirectory(t *testing.T) {
	lines, err := NewRunner(t.TempDir()).Lines(context.Background(), "ls")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("lines = %v, want none", lines)
	}
}

func TestOutputFailure(t *testing.T) {
	runner := NewRunner(t.TempDir())

	_, err := runner.Output(context.Background(), "ls", "does-not-exist")
	if err == nil {
		t.Fatal("expected failure listing a missing path")
	}
	if !IsCommandError(err) {
		t.Fatalf("error %T is not a *CommandError", err)
	}
	if !strings.Contains(err.Error(), "ls does-not-exist") {
		t.Errorf("error %q does not name the invocation", err)
	}

	_, err = runner.Output(context.Background(), "scrivener-no-such-binary")
	if !IsCommandError(err) {
		t.Errorf("missing binary error %v is not a *CommandError", err)
	}
}

func TestOutputCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(t.TempDir()).Output(ctx, "ls"); err == nil {
		t.Error("expected error with a cancelled context")
	}
}

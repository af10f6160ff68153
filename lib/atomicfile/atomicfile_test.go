// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteCreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.cbor")

	if err := Write(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("contents = %q, want second", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestWriteLeavesNoTemporaryFiles(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "notes.txt")
	for range 3 {
		if err := Write(path, []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "notes.txt" {
		var names []string
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("directory contents = %v, want [notes.txt]", names)
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "file")
	if err := Write(path, []byte("x"), 0o644); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestReplacePreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Replace(path, []byte("#!/bin/sh\necho hi\n")); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestReplaceRequiresExistingRegularFile(t *testing.T) {
	directory := t.TempDir()

	err := Replace(filepath.Join(directory, "absent"), []byte("x"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Replace(absent) = %v, want ErrNotExist", err)
	}

	if err := Replace(directory, []byte("x")); err == nil {
		t.Error("Replace on a directory should fail")
	}
}

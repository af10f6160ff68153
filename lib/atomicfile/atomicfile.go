// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files so that readers and crashes only
// ever observe the old contents or the new contents, never a mix.
//
// Both of Scrivener's writers use it: the register snapshot, and the
// line editor when it rewrites a workspace file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write replaces path with data. The data is written to a temporary
// file in the same directory, synced, given mode perm, and renamed over
// path. The parent directory is synced afterwards so the rename
// survives power loss.
func Write(path string, data []byte, perm os.FileMode) error {
	directory := filepath.Dir(path)
	file, err := os.CreateTemp(directory, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomicfile: creating temporary file for %s: %w", path, err)
	}
	temporaryPath := file.Name()

	fail := func(step string, err error) error {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("atomicfile: %s %s: %w", step, path, err)
	}

	if _, err := file.Write(data); err != nil {
		return fail("writing", err)
	}
	if err := file.Chmod(perm); err != nil {
		return fail("setting mode of", err)
	}
	if err := file.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("atomicfile: closing %s: %w", path, err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("atomicfile: renaming into %s: %w", path, err)
	}

	if parent, err := os.Open(directory); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// Replace rewrites an existing file, keeping its permission bits.
func Replace(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("atomicfile: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("atomicfile: %s is not a regular file", path)
	}
	return Write(path, data, info.Mode().Perm())
}

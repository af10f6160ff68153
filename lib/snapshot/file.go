// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/scrivener/lib/atomicfile"
	"github.com/bureau-foundation/scrivener/lib/codec"
)

// File is a snapshot file on disk.
type File struct {
	path    string
	options Options
}

// NewFile returns a File at path written with options.
func NewFile(path string, options Options) *File {
	return &File{path: path, options: options}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Save CBOR-encodes value and atomically replaces the file with mode
// 0600.
func (f *File) Save(value any) error {
	payload, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("snapshot: encoding %s: %w", f.path, err)
	}
	data, err := Encode(payload, f.options)
	if err != nil {
		return err
	}
	return atomicfile.Write(f.path, data, 0o600)
}

// Load reads the file into value. A missing file returns an error
// satisfying errors.Is(err, os.ErrNotExist); unreadable contents
// satisfy errors.Is(err, ErrCorrupt) or errors.Is(err, ErrSealed).
func (f *File) Load(value any) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	payload, err := Decode(data, f.options.Identity)
	if err != nil {
		return fmt.Errorf("%s: %w", f.path, err)
	}
	if err := codec.Unmarshal(payload, value); err != nil {
		return fmt.Errorf("%s: %w: %v", f.path, ErrCorrupt, err)
	}
	return nil
}

// Stat describes a snapshot file without decoding its payload. It is
// used by `scrivener check`.
type Stat struct {
	Compression CompressionTag
	Sealed      bool
	Size        int
	StoredSize  int
}

// Inspect reads the envelope header fields of the file.
func (f *File) Inspect() (Stat, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Stat{}, fmt.Errorf("snapshot: %w", err)
	}
	var wrapped envelope
	if err := codec.Unmarshal(data, &wrapped); err != nil {
		return Stat{}, fmt.Errorf("%s: %w: %v", f.path, ErrCorrupt, err)
	}
	return Stat{
		Compression: wrapped.Compression,
		Sealed:      wrapped.Sealed,
		Size:        wrapped.Size,
		StoredSize:  len(data),
	}, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/scrivener/lib/snapshot"
)

// snapshotDocument is the payload stored in the snapshot file.
type snapshotDocument struct {
	Users map[string]UserRegisters `cbor:"users"`
}

// SnapshotPersister persists the store to a snapshot file.
type SnapshotPersister struct {
	File *snapshot.File
}

// Save implements Persister.
func (p SnapshotPersister) Save(users map[string]UserRegisters) error {
	return p.File.Save(snapshotDocument{Users: users})
}

// Load implements Persister. Corrupt snapshot contents are reported as
// ErrUnreadable.
func (p SnapshotPersister) Load() (map[string]UserRegisters, error) {
	var document snapshotDocument
	if err := p.File.Load(&document); err != nil {
		if errors.Is(err, snapshot.ErrCorrupt) {
			return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		return nil, err
	}
	for user, registers := range document.Users {
		if registers.Registers == nil {
			registers.Registers = make(map[string]string)
			document.Users[user] = registers
		}
	}
	return document.Users, nil
}

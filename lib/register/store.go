// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
)

// UserRegisters is one user's register set.
type UserRegisters struct {
	// Active is the open register's label, or "" when none is open.
	Active string `cbor:"active,omitempty"`

	// Registers maps labels to text. Appended chunks are joined with
	// "\n".
	Registers map[string]string `cbor:"registers"`
}

func (u *UserRegisters) clone() UserRegisters {
	registers := make(map[string]string, len(u.Registers))
	maps.Copy(registers, u.Registers)
	return UserRegisters{Active: u.Active, Registers: registers}
}

// Persister stores and retrieves the whole register store.
type Persister interface {
	// Save durably replaces the stored state with users.
	Save(users map[string]UserRegisters) error

	// Load returns the stored state. A store that was never saved
	// returns an error satisfying errors.Is(err, os.ErrNotExist).
	Load() (map[string]UserRegisters, error)
}

// Store holds the register sets of all users, keyed by user ID.
type Store struct {
	mu        sync.Mutex
	users     map[string]*UserRegisters
	persister Persister
	logger    *slog.Logger
}

// Config configures Load.
type Config struct {
	Persister Persister

	// Logger receives warnings about unusable snapshots. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Load builds a store from config.Persister. A missing snapshot gives
// an empty store. So does a corrupt one, with a warning: the next
// persisting action overwrites it. Any other load failure (an
// unreadable file, a sealed snapshot without its identity) is returned
// so the process does not start over the top of data it cannot read.
func Load(config Config) (*Store, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		users:     make(map[string]*UserRegisters),
		persister: config.Persister,
		logger:    logger,
	}

	loaded, err := config.Persister.Load()
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		logger.Info("no register snapshot, starting empty")
		return store, nil
	case errors.Is(err, ErrUnreadable):
		logger.Warn("register snapshot unreadable, starting empty", "error", err)
		return store, nil
	default:
		return nil, fmt.Errorf("register: loading snapshot: %w", err)
	}

	for user, registers := range loaded {
		cloned := registers.clone()
		store.users[user] = &cloned
	}
	logger.Info("register snapshot loaded", "users", len(store.users))
	return store, nil
}

// ErrUnreadable marks a Persister.Load failure caused by bad stored
// data rather than by the storage itself.
var ErrUnreadable = errors.New("register: stored snapshot is unreadable")

// Open makes label the user's active register, creating the user's set
// when needed. Existing text under label is kept; a previously active
// label is replaced.
func (s *Store) Open(user, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(user).Active = label
}

// Append adds text to the user's active register, separated from
// existing text by a newline. It reports false and changes nothing when
// no register is active.
func (s *Store) Append(user, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	registers, ok := s.users[user]
	if !ok || registers.Active == "" {
		return false
	}
	if existing, ok := registers.Registers[registers.Active]; ok && existing != "" {
		registers.Registers[registers.Active] = existing + "\n" + text
	} else {
		registers.Registers[registers.Active] = text
	}
	return true
}

// Close releases the user's active register and persists the store. It
// returns the label that was released.
func (s *Store) Close(user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registers, ok := s.users[user]
	if !ok || registers.Active == "" {
		return "", ErrNothingToRelease
	}
	label := registers.Active
	registers.Active = ""
	return label, s.persistLocked()
}

// Read returns the text stored under label.
func (s *Store) Read(user, label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registers, ok := s.users[user]
	if !ok {
		return "", &EmptyError{Label: label}
	}
	text, ok := registers.Registers[label]
	if !ok {
		return "", &EmptyError{Label: label}
	}
	return text, nil
}

// Delete removes label and persists the store. An absent label is an
// *EmptyError and nothing is persisted.
func (s *Store) Delete(user, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registers, ok := s.users[user]
	if !ok {
		return &EmptyError{Label: label}
	}
	if _, ok := registers.Registers[label]; !ok {
		return &EmptyError{Label: label}
	}
	delete(registers.Registers, label)
	return s.persistLocked()
}

// Reset drops the user's whole register set and persists the store.
func (s *Store) Reset(user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, user)
	return s.persistLocked()
}

// List returns the user's labels in sorted order.
func (s *Store) List(user string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	registers, ok := s.users[user]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(registers.Registers))
}

// Active returns the user's active label, if any.
func (s *Store) Active(user string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registers, ok := s.users[user]
	if !ok || registers.Active == "" {
		return "", false
	}
	return registers.Active, true
}

// Snapshot returns a deep copy of every user's register set.
func (s *Store) Snapshot() map[string]UserRegisters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() map[string]UserRegisters {
	snapshot := make(map[string]UserRegisters, len(s.users))
	for user, registers := range s.users {
		snapshot[user] = registers.clone()
	}
	return snapshot
}

func (s *Store) persistLocked() error {
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		return fmt.Errorf("register: persisting: %w", err)
	}
	return nil
}

func (s *Store) userLocked(user string) *UserRegisters {
	registers, ok := s.users[user]
	if !ok {
		registers = &UserRegisters{Registers: make(map[string]string)}
		s.users[user] = registers
	}
	return registers
}

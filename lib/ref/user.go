// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// UserID is a Matrix user ID such as "@alice:example.org". The zero
// value is not a valid ID; check with IsZero.
type UserID struct {
	id string
}

// ParseUserID validates raw as "@localpart:server".
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := splitSigilID(raw, '@', "Matrix user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is ParseUserID for known-valid input.
func MustParseUserID(raw string) UserID {
	user, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return user
}

func (u UserID) String() string { return u.id }

// IsZero reports whether u is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the part between '@' and the first ':'.
func (u UserID) Localpart() string {
	local, _, _ := splitSigilID(u.id, '@', "Matrix user ID")
	return local
}

// Server returns the homeserver name.
func (u UserID) Server() string {
	_, server, _ := splitSigilID(u.id, '@', "Matrix user ID")
	return server
}

func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

func (u *UserID) UnmarshalText(data []byte) error {
	return unmarshalText(data, ParseUserID, u)
}

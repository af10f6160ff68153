// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomID is a server-assigned Matrix room ID such as
// "!opaque:example.org". Scrivener never constructs one; they arrive in
// /sync responses and invites.
type RoomID struct {
	id string
}

// ParseRoomID validates raw as "!opaque:server".
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := splitSigilID(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is ParseRoomID for known-valid input.
func MustParseRoomID(raw string) RoomID {
	room, err := ParseRoomID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomID(%q): %v", raw, err))
	}
	return room
}

func (r RoomID) String() string { return r.id }
func (r RoomID) IsZero() bool   { return r.id == "" }

func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

func (r *RoomID) UnmarshalText(data []byte) error {
	return unmarshalText(data, ParseRoomID, r)
}

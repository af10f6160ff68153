// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// EventID is a Matrix event ID. Modern room versions use "$hash" with
// no server part, so the only check is the sigil and a non-empty body.
type EventID struct {
	id string
}

// ParseEventID validates raw as "$something".
func ParseEventID(raw string) (EventID, error) {
	if len(raw) < 2 || raw[0] != '$' {
		return EventID{}, fmt.Errorf("invalid event ID %q: must be '$' followed by an identifier", raw)
	}
	return EventID{id: raw}, nil
}

func (e EventID) String() string { return e.id }
func (e EventID) IsZero() bool   { return e.id == "" }

func (e EventID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

func (e *EventID) UnmarshalText(data []byte) error {
	return unmarshalText(data, ParseEventID, e)
}

// EventType names a Matrix event type ("m.room.message"). It is a named
// string so event types and state keys cannot be swapped by accident.
type EventType string

func (t EventType) String() string { return string(t) }

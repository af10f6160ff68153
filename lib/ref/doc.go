// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated Matrix identifiers for Scrivener's
// Matrix transport.
//
// Scrivener only ever talks to the homeserver on behalf of one account
// and only ever needs to name users, rooms, events and event types.
// Each is parsed once at the boundary (config, login response, /sync
// payload) and passed around as an immutable value:
//
//	user, err := ref.ParseUserID("@alice:example.org")
//	room, err := ref.ParseRoomID("!abc:example.org")
//
// JSON (un)marshaling uses the canonical string form.
package ref

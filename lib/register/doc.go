// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package register holds each user's named text registers.
//
// A register is a label mapped to text. A user fills a register by
// opening it (/in label), sending plain messages that are appended one
// per line, and closing it (/ni). At most one register per user is
// open ("active") at a time. Closed registers keep their text until
// the user clears them, and are later written into files by the line
// editor.
//
// Opening a register does not create it: the label appears only once
// the first chunk of text is appended. Appends live in memory only; the
// whole store is persisted on every Close, Delete and Reset through a
// [Persister]. A crash between open and close therefore loses the
// appended text of the open register, and nothing else.
//
// Store is safe for concurrent use, though Scrivener handles one update
// at a time.
package register

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds Scrivener's CBOR configuration.
//
// CBOR is used for everything Scrivener writes to its own state
// directory: the register snapshot payload and the snapshot envelope
// around it. JSON stays at the edges (Matrix client-server API, the
// Matrix session file). Keeping the encoder modes in one place means
// every on-disk structure is encoded identically.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Two
// stores holding the same registers produce the same bytes, which is
// what lets the snapshot checksum double as an equality check.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever stored as CBOR use `cbor` struct tags.
package codec

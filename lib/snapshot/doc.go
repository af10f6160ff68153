// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot defines the on-disk format of Scrivener's register
// snapshot and the file that holds it.
//
// A snapshot file is one CBOR-encoded envelope:
//
//	{1: version, 2: compression tag, 3: sealed, 4: payload size,
//	 5: blake3-256 of payload, 6: body}
//
// The payload is the CBOR encoding of whatever value the caller saves.
// The body is that payload compressed (none, lz4 block, or zstd) and
// then, when an age identity is configured, sealed to it. The checksum
// and size are over the uncompressed payload, so a corrupted or
// truncated file is detected after decompression rather than decoded
// into a half-valid store.
//
// Compression that does not make the payload smaller is skipped and
// recorded as CompressionNone.
package snapshot

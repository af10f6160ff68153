// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/scrivener/lib/codec"
	"github.com/bureau-foundation/scrivener/lib/sealed"
)

// formatVersion is bumped when the envelope layout changes.
const formatVersion = 1

// maxPayloadSize caps the decoded payload. Size comes from the file,
// so it is checked before anything is allocated from it.
const maxPayloadSize = 64 << 20

// ErrSealed is returned when a sealed snapshot is read without an
// identity.
var ErrSealed = errors.New("snapshot: file is sealed and no identity is configured")

// ErrCorrupt wraps every failure that means the file contents cannot
// be trusted: bad CBOR, wrong version, checksum or size mismatch.
var ErrCorrupt = errors.New("snapshot: corrupt")

type envelope struct {
	Version     int            `cbor:"1,keyasint"`
	Compression CompressionTag `cbor:"2,keyasint"`
	Sealed      bool           `cbor:"3,keyasint,omitempty"`
	Size        int            `cbor:"4,keyasint"`
	Checksum    []byte         `cbor:"5,keyasint"`
	Body        []byte         `cbor:"6,keyasint"`
}

// Options control how Encode writes a payload.
type Options struct {
	Compression CompressionTag

	// Identity, when set, seals the body to the identity's recipient.
	Identity *sealed.Identity
}

// Encode wraps payload in an envelope.
func Encode(payload []byte, options Options) ([]byte, error) {
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("snapshot: payload is %d bytes, limit is %d", len(payload), maxPayloadSize)
	}
	checksum := blake3.Sum256(payload)

	tag := options.Compression
	body, err := compress(payload, tag)
	if errors.Is(err, errIncompressible) {
		tag, body, err = CompressionNone, payload, nil
	}
	if err != nil {
		return nil, err
	}

	isSealed := options.Identity != nil
	if isSealed {
		body, err = options.Identity.Seal(body)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	return codec.Marshal(envelope{
		Version:     formatVersion,
		Compression: tag,
		Sealed:      isSealed,
		Size:        len(payload),
		Checksum:    checksum[:],
		Body:        body,
	})
}

// Decode unwraps an envelope and returns the verified payload. identity
// may be nil when the snapshot is not sealed.
func Decode(data []byte, identity *sealed.Identity) ([]byte, error) {
	var wrapped envelope
	if err := codec.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if wrapped.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorrupt, wrapped.Version)
	}
	if wrapped.Size < 0 {
		return nil, fmt.Errorf("%w: negative payload size", ErrCorrupt)
	}
	if wrapped.Size > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d exceeds limit %d", ErrCorrupt, wrapped.Size, maxPayloadSize)
	}

	body := wrapped.Body
	if wrapped.Sealed {
		if identity == nil {
			return nil, ErrSealed
		}
		opened, err := identity.Open(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		body = opened
	}

	payload, err := decompress(body, wrapped.Compression, wrapped.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	checksum := blake3.Sum256(payload)
	if !bytes.Equal(checksum[:], wrapped.Checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return payload, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/scrivener/lib/codec"
	"github.com/bureau-foundation/scrivener/lib/sealed"
)

// textPayload is repetitive enough for every algorithm to shrink it.
var textPayload = []byte(strings.Repeat("buy milk\nwater the plants\n", 64))

func TestEncodeDecodeEachCompression(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			t.Parallel()
			data, err := Encode(textPayload, Options{Compression: tag})
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if tag != CompressionNone && len(data) >= len(textPayload) {
				t.Errorf("%s envelope is %d bytes for a %d byte payload", tag, len(data), len(textPayload))
			}

			payload, err := Decode(data, nil)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(payload, textPayload) {
				t.Error("payload changed across Encode/Decode")
			}
		})
	}
}

func TestEncodeFallsBackForIncompressibleData(t *testing.T) {
	tiny := []byte("x")
	data, err := Encode(tiny, Options{Compression: CompressionZstd})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var wrapped envelope
	if err := codec.Unmarshal(data, &wrapped); err != nil {
		t.Fatal(err)
	}
	if wrapped.Compression != CompressionNone {
		t.Errorf("Compression = %s, want none", wrapped.Compression)
	}

	payload, err := Decode(data, nil)
	if err != nil || !bytes.Equal(payload, tiny) {
		t.Errorf("Decode = %q, %v", payload, err)
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	data, err := Encode(textPayload, Options{Compression: CompressionNone})
	if err != nil {
		t.Fatal(err)
	}

	var wrapped envelope
	if err := codec.Unmarshal(data, &wrapped); err != nil {
		t.Fatal(err)
	}
	wrapped.Body[0] ^= 0xff
	tampered, err := codec.Marshal(wrapped)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string][]byte{
		"flipped body byte": tampered,
		"not cbor":          []byte("registers"),
		"truncated":         data[:len(data)/2],
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(input, nil); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := codec.Marshal(envelope{Version: 99})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data, nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode = %v, want ErrCorrupt", err)
	}
}

func TestDecodeRejectsImplausibleSize(t *testing.T) {
	t.Parallel()
	compressed, err := Encode(textPayload, Options{Compression: CompressionLZ4})
	if err != nil {
		t.Fatal(err)
	}
	var lz4Envelope envelope
	if err := codec.Unmarshal(compressed, &lz4Envelope); err != nil {
		t.Fatal(err)
	}

	overRatio := len(lz4Envelope.Body)*lz4MaxRatio + 1
	tests := map[string]envelope{
		"lz4 beyond limit":  {Version: formatVersion, Compression: CompressionLZ4, Size: maxPayloadSize + 1, Checksum: []byte{1}, Body: []byte{0}},
		"zstd beyond limit": {Version: formatVersion, Compression: CompressionZstd, Size: maxPayloadSize + 1, Checksum: []byte{1}, Body: []byte{0}},
		"lz4 beyond ratio":  {Version: formatVersion, Compression: CompressionLZ4, Size: overRatio, Checksum: lz4Envelope.Checksum, Body: lz4Envelope.Body},
	}
	for name, wrapped := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := codec.Marshal(wrapped)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Decode(data, nil); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestSealedSnapshots(t *testing.T) {
	identity, err := sealed.Generate()
	if err != nil {
		t.Fatal(err)
	}

	data, err := Encode(textPayload, Options{Compression: CompressionZstd, Identity: identity})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if bytes.Contains(data, []byte("buy milk")) {
		t.Error("sealed snapshot contains plaintext")
	}

	payload, err := Decode(data, identity)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(payload, textPayload) {
		t.Error("sealed payload changed across Encode/Decode")
	}

	if _, err := Decode(data, nil); !errors.Is(err, ErrSealed) {
		t.Errorf("Decode without identity = %v, want ErrSealed", err)
	}

	other, err := sealed.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data, other); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Decode with wrong identity = %v, want ErrCorrupt", err)
	}
}

type storedRegisters struct {
	Users map[string]map[string]string `cbor:"users"`
}

func TestFileSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.cbor")
	file := NewFile(path, Options{Compression: CompressionLZ4})

	var missing storedRegisters
	if err := file.Load(&missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load of a missing file = %v, want ErrNotExist", err)
	}

	want := storedRegisters{Users: map[string]map[string]string{
		"42": {"shop": "milk\neggs", "todo": "call mum"},
	}}
	if err := file.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("snapshot mode = %v, want 0600", info.Mode().Perm())
	}

	var got storedRegisters
	if err := file.Load(&got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loaded snapshot mismatch (-want +got):\n%s", diff)
	}

	stat, err := file.Inspect()
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if stat.Sealed || stat.StoredSize != int(info.Size()) {
		t.Errorf("Inspect = %+v", stat)
	}
}

func TestFileLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.cbor")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	var value storedRegisters
	if err := NewFile(path, Options{}).Load(&value); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load = %v, want ErrCorrupt", err)
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		tag, err := ParseCompressionTag(name)
		if err != nil {
			t.Fatalf("ParseCompressionTag(%q): %v", name, err)
		}
		if tag.String() != name {
			t.Errorf("round trip %q -> %s", name, tag)
		}
	}
	if _, err := ParseCompressionTag("gzip"); err == nil {
		t.Error("ParseCompressionTag(gzip) should fail")
	}
}

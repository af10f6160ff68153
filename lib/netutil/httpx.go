// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads for Scrivener's Matrix
// client. Every JSON body from the homeserver goes through
// ReadResponse or DecodeResponse so a misbehaving server cannot make
// the bot allocate without limit.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize caps a single JSON API body. A /sync response for a
// bot in a handful of direct rooms is kilobytes; 64 MiB is far past
// anything legitimate.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads body and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody returns whatever of body can be read, for error messages.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return string(data)
}

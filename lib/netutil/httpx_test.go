// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"strings"
	"testing"
)

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDecodeResponse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var out struct {
			NextBatch string `json:"next_batch"`
		}
		if err := DecodeResponse(strings.NewReader(`{"next_batch":"s72594_4483_1934"}`), &out); err != nil {
			t.Fatalf("DecodeResponse: %v", err)
		}
		if out.NextBatch != "s72594_4483_1934" {
			t.Errorf("NextBatch = %q", out.NextBatch)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		var out map[string]any
		if err := DecodeResponse(strings.NewReader(`{not json`), &out); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("read error", func(t *testing.T) {
		var out map[string]any
		err := DecodeResponse(failReader{}, &out)
		if err == nil || !strings.Contains(err.Error(), "connection reset") {
			t.Errorf("err = %v, want wrapped read error", err)
		}
	})
}

func TestErrorBody(t *testing.T) {
	if got := ErrorBody(strings.NewReader(`{"errcode":"M_FORBIDDEN"}`)); got != `{"errcode":"M_FORBIDDEN"}` {
		t.Errorf("ErrorBody = %q", got)
	}
	if got := ErrorBody(failReader{}); got != "" {
		t.Errorf("ErrorBody on failing reader = %q, want empty", got)
	}
}

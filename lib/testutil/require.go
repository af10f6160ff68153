// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the part of testing.TB that RequireReceive uses.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test when
// none arrives within timeout or ch is closed first. what describes the
// wait for the failure message.
//
//	reply := testutil.RequireReceive(t, sent, 5*time.Second, "waiting for a reply")
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, what string, args ...any) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while %s", fmt.Sprintf(what, args...))
		}
		return value
	case <-time.After(timeout):
		t.Fatalf("timed out after %v %s", timeout, fmt.Sprintf(what, args...))
	}
	panic("unreachable")
}

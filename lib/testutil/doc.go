// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by scrivener's package tests.
//
// [RequireReceive] waits for a value from a channel with a wall-clock
// limit. Tests that wait on goroutines (transport loops, fake servers)
// go through it instead of writing their own select with time.After,
// so a hung test fails with a message rather than at the go test
// deadline.
//
// [DiscardLogger] and [TestLogger] supply the *slog.Logger that every
// component config accepts.
package testutil

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds Scrivener's credentials outside the Go heap.
//
// The Telegram bot token, the Matrix access token, the login password
// and the snapshot age identity are each read into a [Buffer]: an
// anonymous mmap region that is mlocked against swap and excluded from
// core dumps. Close zeroes and unmaps it. After Close any read panics.
//
// [ReadFromPath] is the usual entry point. It reads a file (or stdin
// for "-"), trims surrounding whitespace, and zeroes the intermediate
// heap copy.
package secret

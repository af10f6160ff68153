// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the exit-path helpers for the scrivener binary:
// reporting a fatal error before the logger exists, and the exit code
// that asks the service manager for a restart.
package process

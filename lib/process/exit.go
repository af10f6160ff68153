// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// ExitRestart is returned by the scrivener binary when a user asked for
// a restart. It is EX_TEMPFAIL from sysexits.h; the shipped systemd
// unit lists it in RestartForceExitStatus so the manager starts a fresh
// process.
const ExitRestart = 75

// Fatal writes "error: err" to stderr and exits with status 1. Use it
// in main for errors that happen before logging is configured.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

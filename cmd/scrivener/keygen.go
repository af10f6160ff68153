// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bureau-foundation/scrivener/lib/sealed"
)

// runKeygen writes a fresh age identity for store.identity_file and
// prints its recipient. An existing file is never overwritten: losing
// the identity makes a sealed snapshot unreadable.
func runKeygen(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("keygen", stderr)
	output := flags.StringP("output", "o", "", "identity file to create (required)")
	if err := parseFlags(flags, args); err != nil {
		return err
	}
	if *output == "" {
		flags.Usage()
		return errors.New("keygen: --output is required")
	}

	identity, err := sealed.Generate()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(*output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	_, writeErr := file.Write(identity.File(time.Now()))
	if err := errors.Join(writeErr, file.Close()); err != nil {
		os.Remove(*output)
		return fmt.Errorf("keygen: writing %s: %w", *output, err)
	}

	fmt.Fprintf(stdout, "Public key: %s\n", identity.Recipient())
	fmt.Fprintf(stdout, "Identity written to %s; set store.identity_file to seal snapshots.\n", *output)
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/bureau-foundation/scrivener/lib/secret"
	"github.com/bureau-foundation/scrivener/messaging"
)

// loginTimeout bounds the login and whoami round trips.
const loginTimeout = 30 * time.Second

// runLogin logs the bot account in with a password, verifies the new
// session with whoami, and writes transport.matrix.session_file.
func runLogin(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("login", stderr)
	configPath := flags.String("config", "", "path to scrivener.yaml (default: $SCRIVENER_CONFIG)")
	passwordFile := flags.String("password-file", "", "file holding the password, or - for the first line of stdin (default: prompt)")
	if err := parseFlags(flags, args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("login: expected exactly one username")
	}
	username := flags.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	matrix := cfg.Transport.Matrix
	if matrix.HomeserverURL == "" || matrix.SessionFile == "" {
		return fmt.Errorf("login: transport.matrix.homeserver_url and transport.matrix.session_file must be set")
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	password, err := readLoginPassword(*passwordFile, stderr)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer password.Close()

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer session.Close()

	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("login: verifying session: %w", err)
	}
	if err := messaging.SaveSession(matrix.SessionFile, session); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Logged in as %s (device %s)\n", userID, session.DeviceID())
	fmt.Fprintf(stdout, "Session saved to %s\n", matrix.SessionFile)
	return nil
}

// readLoginPassword reads the password from passwordFile, or prompts on
// the terminal with echo disabled when passwordFile is empty.
func readLoginPassword(passwordFile string, prompt io.Writer) (*secret.Buffer, error) {
	if passwordFile != "" {
		return secret.ReadFromPath(passwordFile)
	}

	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, fmt.Errorf("no terminal available for a password prompt (use --password-file)")
	}
	fmt.Fprint(prompt, "Password: ")
	passwordBytes, err := term.ReadPassword(descriptor)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return nil, fmt.Errorf("password is empty")
	}
	return secret.NewFromBytes(passwordBytes)
}

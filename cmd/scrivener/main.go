// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scrivener/lib/config"
	"github.com/bureau-foundation/scrivener/lib/process"
	"github.com/bureau-foundation/scrivener/lib/version"
)

// subcommand is one entry in the scrivener command table.
type subcommand struct {
	summary string
	usage   string
	run     func(args []string, stdout, stderr io.Writer) error
}

var subcommands map[string]subcommand

func init() {
	subcommands = map[string]subcommand{
		"serve":  {"Run the bot", "scrivener serve [--config FILE]", runServe},
		"login":  {"Log the bot's Matrix account in and save its session", "scrivener login [--config FILE] [--password-file FILE] <username>", runLogin},
		"check":  {"Validate the configuration and report the stored state", "scrivener check [--config FILE]", runCheck},
		"keygen": {"Generate an age identity for sealed snapshots", "scrivener keygen --output FILE", runKeygen},
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		process.Fatal(err)
	}
}

// run dispatches args to a subcommand. With no arguments it serves.
func run(args []string, stdout, stderr io.Writer) error {
	err := dispatch(args, stdout, stderr)
	if errors.Is(err, errHelpShown) {
		return nil
	}
	return err
}

func dispatch(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return runServe(nil, stdout, stderr)
	}

	switch args[0] {
	case "--version", "version":
		version.Print(stdout, "scrivener")
		return nil
	case "--help", "-h", "help":
		printUsage(stdout)
		return nil
	}

	// Flags before a subcommand name belong to serve.
	if strings.HasPrefix(args[0], "-") {
		return runServe(args, stdout, stderr)
	}

	command, ok := subcommands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return command.run(args[1:], stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: scrivener <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(subcommands))
	for name := range subcommands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, subcommands[name].summary)
	}
	fmt.Fprintf(w, "\nWith no command, scrivener serves. The config file comes from --config or SCRIVENER_CONFIG.\n")
}

// newFlagSet returns a flag set for the named subcommand whose usage
// output goes to stderr.
func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("scrivener "+name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s\n\n", subcommands[name].usage)
		flags.PrintDefaults()
	}
	return flags
}

// parseFlags parses args into flags. A help request is reported as
// errHelpShown so callers can return without doing anything.
func parseFlags(flags *pflag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelpShown
		}
		return err
	}
	return nil
}

var errHelpShown = errors.New("help shown")

// loadConfig reads the file at path, or SCRIVENER_CONFIG when path is
// empty, and validates it.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// exitError ends the process with a specific status and no message.
type exitError struct {
	code   int
	reason string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("%s (exit status %d)", e.reason, e.code)
}

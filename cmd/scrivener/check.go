// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/scrivener/lib/access"
	"github.com/bureau-foundation/scrivener/lib/config"
	"github.com/bureau-foundation/scrivener/lib/git"
	"github.com/bureau-foundation/scrivener/lib/register"
)

// runCheck loads everything serve would load, without connecting to a
// chat network, and reports what it found. Like serve it prepares the
// state directory. Problems are collected so a
// single run lists all of them.
func runCheck(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("check", stderr)
	configPath := flags.String("config", "", "path to scrivener.yaml (default: $SCRIVENER_CONFIG)")
	if err := parseFlags(flags, args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	var problems []error
	report := func(label, format string, values ...any) {
		fmt.Fprintf(stdout, "%-12s %s\n", label+":", fmt.Sprintf(format, values...))
	}

	report("environment", "%s", cfg.Environment)
	report("transport", "%s", cfg.Transport.Kind)
	report("workspace", "%s", cfg.Paths.Root)

	if err := cfg.EnsurePaths(); err != nil {
		problems = append(problems, err)
	}

	allowList, err := access.LoadAllowList(cfg.Paths.AllowedUsers, allowListValidator(cfg))
	if err != nil {
		problems = append(problems, err)
		report("allow-list", "unreadable")
	} else {
		report("allow-list", "%d users (%s)", allowList.Len(), cfg.Paths.AllowedUsers)
	}

	if _, err := os.Stat(cfg.Paths.HelpMessage); err != nil {
		problems = append(problems, fmt.Errorf("help message: %w", err))
		report("help", "missing")
	} else {
		report("help", "%s", cfg.Paths.HelpMessage)
	}

	problems = append(problems, checkSnapshot(cfg, report, logger)...)

	if cfg.Git.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		repository := git.NewRepository(cfg.Paths.Root, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err := repository.CheckWorkTree(ctx); err != nil {
			problems = append(problems, err)
			report("git", "enabled, work tree unusable")
		} else if err := repository.RequireIgnored(ctx, cfg.PrivateFilesInRoot()...); err != nil {
			problems = append(problems, err)
			report("git", "enabled, private files not ignored")
		} else {
			report("git", "enabled")
		}
	} else {
		report("git", "disabled")
	}

	if err := errors.Join(problems...); err != nil {
		return fmt.Errorf("check failed:\n%w", err)
	}
	return nil
}

// checkSnapshot inspects the snapshot envelope and loads the registers
// it holds.
func checkSnapshot(cfg *config.Config, report func(label, format string, values ...any), logger *slog.Logger) []error {
	file, err := openSnapshot(cfg)
	if err != nil {
		report("snapshot", "unusable")
		return []error{err}
	}

	stat, err := file.Inspect()
	switch {
	case errors.Is(err, os.ErrNotExist):
		report("snapshot", "none yet (%s)", file.Path())
		return nil
	case err != nil:
		report("snapshot", "unreadable (%s)", file.Path())
		return []error{err}
	}
	sealing := "plain"
	if stat.Sealed {
		sealing = "sealed"
	}
	report("snapshot", "%s, %s, %s, %d bytes on disk, %d bytes decoded",
		file.Path(), stat.Compression, sealing, stat.StoredSize, stat.Size)

	store, err := register.Load(register.Config{
		Persister: register.SnapshotPersister{File: file},
		Logger:    logger,
	})
	if err != nil {
		return []error{err}
	}
	users := store.Snapshot()
	labels := 0
	for _, registers := range users {
		labels += len(registers.Registers)
	}
	report("registers", "%d users, %d registers", len(users), labels)
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI. Scrivener's
// workspace is a git work tree, and every file edit a user makes from
// chat is recorded as one commit. All commands target the repository
// directory via the -C flag, which every Repository method injects.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Repository is a git work tree at a specific directory.
type Repository struct {
	dir         string
	authorName  string
	authorEmail string
}

// NewRepository returns a Repository targeting dir. Commits are made
// with the given identity regardless of the user's git configuration.
func NewRepository(dir, authorName, authorEmail string) *Repository {
	return &Repository{dir: dir, authorName: authorName, authorEmail: authorEmail}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command in this repository and returns stdout.
// Stderr is captured and included in the error on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", &CommandError{
			Args:   args,
			Dir:    r.dir,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// CheckWorkTree fails unless the directory is inside a git work tree.
func (r *Repository) CheckWorkTree(ctx context.Context) error {
	output, err := r.Run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return err
	}
	if strings.TrimSpace(output) != "true" {
		return fmt.Errorf("git: %s is not a work tree", r.dir)
	}
	return nil
}

// CommitAll stages every change in the work tree and commits it with
// message. A clean tree after staging is not an error: there is
// nothing to record, so no commit is made.
func (r *Repository) CommitAll(ctx context.Context, message string) error {
	if _, err := r.Run(ctx, "add", "-A"); err != nil {
		return err
	}

	status, err := r.Run(ctx, "status", "--porcelain")
	if err != nil {
		return err
	}
	if strings.TrimSpace(status) == "" {
		return nil
	}

	_, err = r.Run(ctx,
		"-c", "user.name="+r.authorName,
		"-c", "user.email="+r.authorEmail,
		"commit", "--quiet", "--no-verify", "-m", message)
	return err
}

// IsIgnored reports whether CommitAll would leave path, relative to the
// repository directory, unstaged. A tracked file is never ignored.
func (r *Repository) IsIgnored(ctx context.Context, path string) (bool, error) {
	_, err := r.Run(ctx, "check-ignore", "--quiet", "--", path)
	if err == nil {
		return true, nil
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) && exitError.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}

// RequireIgnored fails unless every path is ignored, naming each one
// that CommitAll would stage.
func (r *Repository) RequireIgnored(ctx context.Context, paths ...string) error {
	var exposed []string
	for _, path := range paths {
		ignored, err := r.IsIgnored(ctx, path)
		if err != nil {
			return err
		}
		if !ignored {
			exposed = append(exposed, path)
		}
	}
	if len(exposed) > 0 {
		return fmt.Errorf("git: private files would be committed from %s: %s", r.dir, strings.Join(exposed, ", "))
	}
	return nil
}

// HeadSubject returns the subject line of the most recent commit.
func (r *Repository) HeadSubject(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "log", "-1", "--format=%s")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// CommandError is a git invocation that exited unsuccessfully.
type CommandError struct {
	Args   []string
	Dir    string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s in %s: %v (stderr: %s)",
		strings.Join(e.Args, " "), e.Dir, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsCommandError reports whether err is or wraps a *CommandError.
func IsCommandError(err error) bool {
	var commandError *CommandError
	return errors.As(err, &commandError)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shell runs single-shot external programs in Scrivener's
// workspace. Commands are executed directly (argv, no /bin/sh), in the
// workspace directory, and either succeed with their stdout or fail
// with a *CommandError carrying stderr.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes programs with a fixed working directory.
type Runner struct {
	dir string
}

// NewRunner returns a Runner whose commands start in dir.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir}
}

// Output runs name with args and returns its stdout. A non-zero exit,
// a missing binary, or context cancellation is a *CommandError.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Dir = r.dir
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", &CommandError{
			Name:   name,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// Lines runs the command and splits stdout into its non-empty lines.
func (r *Runner) Lines(ctx context.Context, name string, args ...string) ([]string, error) {
	output, err := r.Output(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// CommandError is an external program that did not succeed.
type CommandError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	invocation := strings.Join(append([]string{e.Name}, e.Args...), " ")
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", invocation, e.Err)
	}
	return fmt.Sprintf("%s: %v (stderr: %s)", invocation, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsCommandError reports whether err is or wraps a *CommandError.
func IsCommandError(err error) bool {
	var commandError *CommandError
	return errors.As(err, &commandError)
}

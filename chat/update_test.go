// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		wantCommand string
		wantArgs    []string
		wantOK      bool
	}{
		{"bare command", "/ping", "ping", []string{}, true},
		{"arguments", "/read notes.md 3 9", "read", []string{"notes.md", "3", "9"}, true},
		{"extra whitespace", "/in   todo \n", "in", []string{"todo"}, true},
		{"bot suffix", "/regs@scrivener_bot", "regs", []string{}, true},
		{"bot suffix with args", "/print@scrivener_bot todo", "print", []string{"todo"}, true},
		{"plain text", "buy milk", "", nil, false},
		{"slash later", "a/b", "", nil, false},
		{"lone slash", "/", "", nil, false},
		{"slash then space", "/ ping", "ping", []string{}, true},
		{"only suffix", "/@bot", "", nil, false},
		{"empty", "", "", nil, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			command, args, ok := ParseCommand(test.text)
			if ok != test.wantOK {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", test.text, ok, test.wantOK)
			}
			if command != test.wantCommand {
				t.Errorf("command = %q, want %q", command, test.wantCommand)
			}
			if diff := cmp.Diff(test.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewUpdate(t *testing.T) {
	t.Parallel()

	command := NewUpdate("42", "42", "/inject todo notes.md 4")
	if !command.IsCommand() || command.Command != "inject" {
		t.Errorf("command update = %+v", command)
	}
	if diff := cmp.Diff([]string{"todo", "notes.md", "4"}, command.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	text := NewUpdate("42", "42", "just a line")
	if text.IsCommand() || text.Args != nil || text.Text != "just a line" {
		t.Errorf("text update = %+v", text)
	}
}

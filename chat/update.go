// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"strings"
)

// Update is one incoming chat message.
type Update struct {
	// UserID identifies the sender in the form the allow-list uses: the
	// decimal Telegram user ID or the Matrix user ID.
	UserID string

	// ChatID is where the reply goes: the Telegram chat ID or the
	// Matrix room ID.
	ChatID string

	// Text is the full message text.
	Text string

	// Command is the command name without the leading slash or any
	// "@botname" suffix. Empty for plain text.
	Command string

	// Args are the whitespace-separated words after the command.
	Args []string
}

// IsCommand reports whether the message started with a slash command.
func (u Update) IsCommand() bool {
	return u.Command != ""
}

// Format says how a reply's text should be presented.
type Format int

const (
	// FormatPlain is sent as-is.
	FormatPlain Format = iota
	// FormatMarkdown is Markdown source, rendered where the network
	// supports rich text.
	FormatMarkdown
	// FormatCode is preformatted text, optionally tagged with Language.
	FormatCode
)

func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatMarkdown:
		return "markdown"
	case FormatCode:
		return "code"
	default:
		return "unknown"
	}
}

// Reply is one outgoing message.
type Reply struct {
	Text   string
	Format Format
	// Language is the code language for FormatCode replies (e.g. "go").
	Language string
}

// PlainReply returns a FormatPlain reply.
func PlainReply(text string) Reply {
	return Reply{Text: text}
}

// Handler processes one update. It returns the reply to send and true,
// or false when nothing should be sent.
type Handler func(ctx context.Context, update Update) (Reply, bool)

// Transport delivers updates to a handler until its context is cancelled.
type Transport interface {
	// Name identifies the transport in logs ("telegram", "matrix").
	Name() string

	// Run receives updates and dispatches them to handler one at a
	// time. It returns nil when ctx is cancelled and an error when the
	// transport cannot continue.
	Run(ctx context.Context, handler Handler) error
}

// ParseCommand splits a message into a command and its arguments. text
// must start with "/" to be a command. A "@botname" suffix on the command
// (Telegram group syntax) is dropped. Returns ok=false for plain text.
func ParseCommand(text string) (command string, args []string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	command = fields[0]
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	if command == "" {
		return "", nil, false
	}
	return command, fields[1:], true
}

// NewUpdate builds an Update from a raw message, filling Command and Args
// when the text is a command.
func NewUpdate(userID, chatID, text string) Update {
	update := Update{UserID: userID, ChatID: chatID, Text: text}
	if command, args, ok := ParseCommand(text); ok {
		update.Command = command
		update.Args = args
	}
	return update
}

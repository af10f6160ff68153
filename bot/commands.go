// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bureau-foundation/scrivener/chat"
)

// readWindow is how many lines past start /read shows when no end is given.
const readWindow = 5

// Usage lines for commands whose handlers parse line numbers.
const (
	usageRead      = "/read <file> <line_start> <line_end>"
	usageInject    = "/inject <label> <file> <line>"
	usageOverwrite = "/overwrite <label> <file> <line_start> <line_end>"
	usageTrim      = "/trim <file> <line_start> <line_end>"
)

// commandDefinition describes one chat command: whether the sender must
// be allow-listed, whether an open register blocks it, its accepted
// argument count (maxArgs -1 means unbounded), the usage line shown for
// bad arguments, and the handler.
type commandDefinition struct {
	needsAuth    bool
	needsRelease bool
	minArgs      int
	maxArgs      int
	usage        string
	handler      func(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error)
}

// builtinCommands maps command names to their definitions. Slash commands
// not listed here are treated as plain text.
var builtinCommands = map[string]commandDefinition{
	"ping":      {false, false, 0, -1, "/ping", handlePing},
	"help":      {false, false, 0, -1, "/help", handleHelp},
	"restart":   {true, true, 0, -1, "/restart", handleRestart},
	"in":        {true, true, 1, 1, "/in <register_label>", handleOpen},
	"ni":        {true, false, 0, -1, "/ni", handleClose},
	"regs":      {true, true, 0, -1, "/regs", handleList},
	"print":     {true, true, 1, 1, "/print <register_label>", handlePrint},
	"clear":     {true, true, 1, 1, "/clear <register_label>", handleClear},
	"clear_all": {true, true, 0, -1, "/clear_all", handleClearAll},
	"ls":        {true, true, 0, -1, "/ls [args...]", handleListDirectory},
	"read":      {true, true, 1, 3, usageRead, handleRead},
	"new":       {true, true, 2, 2, "/new <label> <file>", handleNew},
	"inject":    {true, true, 2, 3, usageInject, handleInject},
	"overwrite": {true, true, 3, 4, usageOverwrite, handleOverwrite},
	"trim":      {true, true, 2, 3, usageTrim, handleTrim},
}

func handlePing(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	return chat.PlainReply("Pong."), nil
}

func handleHelp(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	content, err := os.ReadFile(b.helpFile)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("reading help message: %w", err)
	}
	return chat.Reply{Text: string(content), Format: chat.FormatMarkdown}, nil
}

func handleRestart(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	b.logger.Warn("restart requested", "user_id", update.UserID)
	b.restart()
	return chat.Reply{}, nil
}

func handleOpen(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	b.store.Open(update.UserID, update.Args[0])
	return chat.Reply{}, nil
}

func handleClose(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	if _, err := b.store.Close(update.UserID); err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{}, nil
}

func handleList(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	labels := b.store.List(update.UserID)
	if len(labels) == 0 {
		return chat.PlainReply("Registers: none."), nil
	}
	return chat.PlainReply("Registers: " + strings.Join(labels, ", ") + "."), nil
}

func handlePrint(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	text, err := b.store.Read(update.UserID, update.Args[0])
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.PlainReply(text), nil
}

func handleClear(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	return chat.Reply{}, b.store.Delete(update.UserID, update.Args[0])
}

func handleClearAll(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	return chat.Reply{}, b.store.Reset(update.UserID)
}

func handleListDirectory(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	entries, err := b.lister.Lines(ctx, "ls", update.Args...)
	if err != nil {
		return chat.Reply{}, err
	}
	if len(entries) == 0 {
		return chat.PlainReply("(empty)"), nil
	}
	return chat.PlainReply(strings.Join(entries, ", ")), nil
}

func handleRead(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	numbers, err := parseLineNumbers(update.Args[1:], usageRead)
	if err != nil {
		return chat.Reply{}, err
	}
	start, end := 1, 1+readWindow
	switch len(numbers) {
	case 1:
		start, end = numbers[0], numbers[0]+readWindow
	case 2:
		start, end = numbers[0], numbers[1]
	}

	name := update.Args[0]
	lines, err := b.editor.ReadRange(name, start, end)
	if err != nil {
		return chat.Reply{}, err
	}
	if len(lines) == 0 {
		return chat.PlainReply("No lines in range."), nil
	}

	var builder strings.Builder
	for index, line := range lines {
		if index > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(strconv.Itoa(line.Number))
		builder.WriteByte(' ')
		builder.WriteString(line.Text)
	}
	return chat.Reply{
		Text:     builder.String(),
		Format:   chat.FormatCode,
		Language: chat.CodeLanguage(name),
	}, nil
}

func handleNew(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	label, name := update.Args[0], update.Args[1]
	content, err := b.store.Read(update.UserID, label)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{}, b.editor.WriteNew(ctx, label, content, name)
}

func handleInject(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	numbers, err := parseLineNumbers(update.Args[2:], usageInject)
	if err != nil {
		return chat.Reply{}, err
	}
	line := 1
	if len(numbers) == 1 {
		line = numbers[0]
	}

	label, name := update.Args[0], update.Args[1]
	content, err := b.store.Read(update.UserID, label)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{}, b.editor.InsertAt(ctx, label, content, name, line)
}

func handleOverwrite(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	numbers, err := parseLineNumbers(update.Args[2:], usageOverwrite)
	if err != nil {
		return chat.Reply{}, err
	}
	start, end := rangeOf(numbers)

	label, name := update.Args[0], update.Args[1]
	content, err := b.store.Read(update.UserID, label)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{}, b.editor.OverwriteRange(ctx, label, content, name, start, end)
}

func handleTrim(ctx context.Context, b *Bot, update chat.Update) (chat.Reply, error) {
	numbers, err := parseLineNumbers(update.Args[1:], usageTrim)
	if err != nil {
		return chat.Reply{}, err
	}
	start, end := rangeOf(numbers)
	return chat.Reply{}, b.editor.DeleteRange(ctx, update.Args[0], start, end)
}

// parseLineNumbers converts line-number arguments, returning a
// *UsageError for anything that is not an integer.
func parseLineNumbers(args []string, usage string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		number, err := strconv.Atoi(arg)
		if err != nil {
			return nil, &UsageError{Usage: usage}
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

// rangeOf returns [start, end] from one or two numbers; a missing end
// equals start.
func rangeOf(numbers []int) (start, end int) {
	start = numbers[0]
	end = start
	if len(numbers) > 1 {
		end = numbers[1]
	}
	return start, end
}

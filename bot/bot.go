// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bureau-foundation/scrivener/chat"
	"github.com/bureau-foundation/scrivener/lib/access"
	"github.com/bureau-foundation/scrivener/lib/git"
	"github.com/bureau-foundation/scrivener/lib/lineedit"
	"github.com/bureau-foundation/scrivener/lib/register"
	"github.com/bureau-foundation/scrivener/lib/shell"
)

// DirectoryLister runs the directory listing behind /ls. *shell.Runner
// satisfies it.
type DirectoryLister interface {
	Lines(ctx context.Context, name string, args ...string) ([]string, error)
}

// Config holds the Bot's collaborators.
type Config struct {
	// Store holds every user's registers.
	Store *register.Store

	// Guard applies the allow-list and the release gate.
	Guard *access.Guard

	// Editor applies registers to files in the workspace.
	Editor *lineedit.Editor

	// Lister runs "ls" in the workspace.
	Lister DirectoryLister

	// HelpFile is read on every /help.
	HelpFile string

	// Restart is called by /restart. The caller is expected to stop
	// the transport and exit with process.ExitRestart.
	Restart func()

	// Fallback, when set, receives text and unknown commands from
	// authorized users who have no register open. It is the hook for
	// deployment-specific commands.
	Fallback chat.Handler

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Bot turns chat updates into register and file operations.
type Bot struct {
	store    *register.Store
	guard    *access.Guard
	editor   *lineedit.Editor
	lister   DirectoryLister
	helpFile string
	restart  func()
	fallback chat.Handler
	logger   *slog.Logger
}

// New validates config and returns a Bot.
func New(config Config) (*Bot, error) {
	var errs []error
	if config.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if config.Guard == nil {
		errs = append(errs, errors.New("guard is required"))
	}
	if config.Editor == nil {
		errs = append(errs, errors.New("editor is required"))
	}
	if config.Lister == nil {
		errs = append(errs, errors.New("lister is required"))
	}
	if config.Restart == nil {
		errs = append(errs, errors.New("restart callback is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("bot: invalid config: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		store:    config.Store,
		guard:    config.Guard,
		editor:   config.Editor,
		lister:   config.Lister,
		helpFile: config.HelpFile,
		restart:  config.Restart,
		fallback: config.Fallback,
		logger:   logger,
	}, nil
}

// Handle processes one update and returns the reply to send, if any.
// Its signature matches chat.Handler.
func (b *Bot) Handle(ctx context.Context, update chat.Update) (reply chat.Reply, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.Error("command panicked",
				"command", update.Command,
				"user_id", update.UserID,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			reply, ok = b.replyForError(update, &panicError{value: recovered})
		}
	}()

	definition, known := builtinCommands[update.Command]
	if !update.IsCommand() || !known {
		return b.handleText(ctx, update)
	}

	start := time.Now()
	reply, err := b.run(ctx, definition, update)
	if err != nil {
		return b.replyForError(update, err)
	}

	b.logger.Debug("command completed",
		"command", update.Command,
		"user_id", update.UserID,
		"duration", time.Since(start),
	)
	return reply, reply.Text != ""
}

// run applies the definition's checks in order (authorization, release
// gate, argument count) and then calls its handler.
func (b *Bot) run(ctx context.Context, definition commandDefinition, update chat.Update) (chat.Reply, error) {
	if definition.needsAuth {
		if err := b.guard.Authorize(update.UserID); err != nil {
			return chat.Reply{}, err
		}
	}
	if definition.needsRelease {
		if err := b.guard.RequireReleased(update.UserID); err != nil {
			return chat.Reply{}, err
		}
	}
	if len(update.Args) < definition.minArgs || (definition.maxArgs >= 0 && len(update.Args) > definition.maxArgs) {
		return chat.Reply{}, &UsageError{Usage: definition.usage}
	}

	b.logger.Info("processing command",
		"command", update.Command,
		"user_id", update.UserID,
		"chat_id", update.ChatID,
		"args", len(update.Args),
	)
	return definition.handler(ctx, b, update)
}

// handleText appends plain text to the sender's open register. Text from
// unknown users is dropped silently. With no register open the update
// goes to the fallback handler, or is dropped when there is none.
func (b *Bot) handleText(ctx context.Context, update chat.Update) (chat.Reply, bool) {
	if err := b.guard.Authorize(update.UserID); err != nil {
		b.logger.Debug("dropping text from unauthorized user", "user_id", update.UserID)
		return chat.Reply{}, false
	}
	if b.store.Append(update.UserID, update.Text) {
		label, _ := b.store.Active(update.UserID)
		b.logger.Debug("appended to register", "user_id", update.UserID, "label", label)
		return chat.Reply{}, false
	}
	if b.fallback == nil {
		return chat.Reply{}, false
	}
	return b.fallback(ctx, update)
}

// replyForError maps a handler failure to the chat reply for it.
func (b *Bot) replyForError(update chat.Update, err error) (chat.Reply, bool) {
	var (
		busy  *access.BusyError
		empty *register.EmptyError
		usage *UsageError
	)
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		b.logger.Debug("ignoring command from unauthorized user",
			"command", update.Command,
			"user_id", update.UserID,
		)
		return chat.Reply{}, false
	case errors.As(err, &busy):
		return chat.PlainReply(fmt.Sprintf("Release register %s.", busy.Label)), true
	case errors.As(err, &empty):
		return chat.PlainReply(fmt.Sprintf("Register %s is empty.", empty.Label)), true
	case errors.Is(err, register.ErrNothingToRelease):
		return chat.PlainReply("No register to release."), true
	case errors.As(err, &usage):
		return chat.PlainReply(usage.Error()), true
	case lineedit.IsError(err) || shell.IsCommandError(err) || git.IsCommandError(err):
		b.logger.Error("command failed",
			"command", update.Command,
			"user_id", update.UserID,
			"error", err,
		)
		return chat.PlainReply("-1"), true
	default:
		b.logger.Error("command raised an unexpected error",
			"command", update.Command,
			"user_id", update.UserID,
			"error", err,
		)
		return chat.PlainReply(err.Error()), true
	}
}

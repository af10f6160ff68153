// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/bureau-foundation/scrivener/bot"
	"github.com/bureau-foundation/scrivener/chat"
	"github.com/bureau-foundation/scrivener/lib/access"
	"github.com/bureau-foundation/scrivener/lib/config"
	"github.com/bureau-foundation/scrivener/lib/git"
	"github.com/bureau-foundation/scrivener/lib/lineedit"
	"github.com/bureau-foundation/scrivener/lib/logging"
	"github.com/bureau-foundation/scrivener/lib/process"
	"github.com/bureau-foundation/scrivener/lib/register"
	"github.com/bureau-foundation/scrivener/lib/sealed"
	"github.com/bureau-foundation/scrivener/lib/secret"
	"github.com/bureau-foundation/scrivener/lib/shell"
	"github.com/bureau-foundation/scrivener/lib/snapshot"
	"github.com/bureau-foundation/scrivener/lib/version"
	"github.com/bureau-foundation/scrivener/messaging"
)

func runServe(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("serve", stderr)
	configPath := flags.String("config", "", "path to scrivener.yaml (default: $SCRIVENER_CONFIG)")
	if err := parseFlags(flags, args); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("serve: unexpected argument %q", flags.Arg(0))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var restartRequested atomic.Bool
	restart := func() {
		restartRequested.Store(true)
		cancel()
	}

	allowList, err := access.LoadAllowList(cfg.Paths.AllowedUsers, allowListValidator(cfg))
	if err != nil {
		return err
	}
	if allowList.Len() == 0 {
		logger.Warn("allow-list is empty, every command except /ping and /help will be ignored",
			"path", cfg.Paths.AllowedUsers)
	}

	handler, err := newBot(ctx, cfg, allowList, restart, logger)
	if err != nil {
		return err
	}
	transport, err := newTransport(cfg, allowList, logger)
	if err != nil {
		return err
	}

	logger.Info("scrivener starting",
		"version", version.Info(),
		"environment", cfg.Environment,
		"transport", transport.Name(),
		"root", cfg.Paths.Root,
	)
	if err := transport.Run(ctx, handler.Handle); err != nil {
		return fmt.Errorf("%s transport: %w", transport.Name(), err)
	}

	if restartRequested.Load() {
		logger.Info("exiting for restart", "exit_status", process.ExitRestart)
		return &exitError{code: process.ExitRestart, reason: "restart requested"}
	}
	logger.Info("scrivener stopped")
	return nil
}

func newLogger(cfg *config.Config, output io.Writer) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Journal: cfg.Logging.Journal,
		Output:  output,
	})
}

// allowListValidator returns the user ID check for the configured
// transport.
func allowListValidator(cfg *config.Config) access.Validator {
	if cfg.Transport.Kind == config.TransportMatrix {
		return access.MatrixUserID
	}
	return access.TelegramUserID
}

// openSnapshot returns the register snapshot file described by cfg.
func openSnapshot(cfg *config.Config) (*snapshot.File, error) {
	compression, err := snapshot.ParseCompressionTag(cfg.Store.Compression)
	if err != nil {
		return nil, err
	}
	options := snapshot.Options{Compression: compression}
	if cfg.Store.IdentityFile != "" {
		identity, err := sealed.LoadIdentity(cfg.Store.IdentityFile)
		if err != nil {
			return nil, err
		}
		options.Identity = identity
	}
	return snapshot.NewFile(cfg.SnapshotPath(), options), nil
}

// newBot builds the store, guard, editor and lister, and the Bot over
// them.
func newBot(ctx context.Context, cfg *config.Config, allowList *access.AllowList, restart func(), logger *slog.Logger) (*bot.Bot, error) {
	file, err := openSnapshot(cfg)
	if err != nil {
		return nil, err
	}
	store, err := register.Load(register.Config{
		Persister: register.SnapshotPersister{File: file},
		Logger:    logger.With("component", "register"),
	})
	if err != nil {
		return nil, err
	}

	var recorder lineedit.Recorder = lineedit.NopRecorder{}
	if cfg.Git.Enabled {
		repository := git.NewRepository(cfg.Paths.Root, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err := repository.CheckWorkTree(ctx); err != nil {
			return nil, fmt.Errorf("git is enabled but the workspace is not usable: %w", err)
		}
		if err := repository.RequireIgnored(ctx, cfg.PrivateFilesInRoot()...); err != nil {
			return nil, err
		}
		recorder = repository
	}

	editor := lineedit.NewEditor(lineedit.Config{
		Root:     cfg.Paths.Root,
		Recorder: recorder,
		Logger:   logger.With("component", "lineedit"),
	})

	return bot.New(bot.Config{
		Store:    store,
		Guard:    access.NewGuard(allowList, store),
		Editor:   editor,
		Lister:   shell.NewRunner(cfg.Paths.Root),
		HelpFile: cfg.Paths.HelpMessage,
		Restart:  restart,
		Logger:   logger.With("component", "bot"),
	})
}

// newTransport connects the configured chat transport. Matrix invites
// are accepted from allow-listed users only.
func newTransport(cfg *config.Config, allowList *access.AllowList, logger *slog.Logger) (chat.Transport, error) {
	switch cfg.Transport.Kind {
	case config.TransportTelegram:
		token, err := secret.ReadFromPath(cfg.Transport.Telegram.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading telegram token: %w", err)
		}
		defer token.Close()
		return chat.NewTelegram(chat.TelegramConfig{
			Token:       token.String(),
			APIEndpoint: cfg.Transport.Telegram.APIEndpoint,
			PollTimeout: cfg.Transport.Telegram.PollTimeout,
			SendRate:    cfg.Transport.SendRate,
			SendBurst:   cfg.Transport.SendBurst,
			Logger:      logger.With("component", "telegram"),
		})

	case config.TransportMatrix:
		session, err := messaging.LoadSession(cfg.Transport.Matrix.SessionFile, messaging.ClientConfig{
			HomeserverURL: cfg.Transport.Matrix.HomeserverURL,
			Logger:        logger.With("component", "messaging"),
		})
		if err != nil {
			return nil, fmt.Errorf("loading matrix session (run \"scrivener login\" first): %w", err)
		}
		return chat.NewMatrix(chat.MatrixConfig{
			Session:      session,
			AcceptInvite: allowList.Contains,
			SendRate:     cfg.Transport.SendRate,
			SendBurst:    cfg.Transport.SendBurst,
			Logger:       logger.With("component", "matrix"),
		})

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport.Kind)
	}
}

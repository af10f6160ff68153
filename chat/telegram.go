// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMessageLimit is the Bot API's maximum message length in
// UTF-16 code units.
const TelegramMessageLimit = 4096

// TelegramConfig configures a Telegram transport.
type TelegramConfig struct {
	// Token is the bot token from BotFather.
	Token string

	// APIEndpoint overrides the Bot API URL format; it must contain two
	// %s verbs (token, method). Empty selects tgbotapi.APIEndpoint.
	APIEndpoint string

	// PollTimeout is the getUpdates long-poll timeout in seconds.
	PollTimeout int

	// SendRate and SendBurst limit outgoing messages.
	SendRate  float64
	SendBurst int

	// HTTPClient is used for all Bot API calls. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Telegram is a Transport backed by the Telegram Bot API.
type Telegram struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	throttle    *throttle
	logger      *slog.Logger
}

// NewTelegram connects to the Bot API and verifies the token with getMe.
func NewTelegram(config TelegramConfig) (*Telegram, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("chat: telegram token is required")
	}
	endpoint := config.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if strings.Count(endpoint, "%s") != 2 {
		return nil, fmt.Errorf("chat: telegram API endpoint %q must contain two %%s verbs", endpoint)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollTimeout := config.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 60
	}

	// tgbotapi logs through a package-level logger; route it into slog.
	if err := tgbotapi.SetLogger(botLogger{logger: logger.With("component", "tgbotapi")}); err != nil {
		return nil, fmt.Errorf("chat: installing telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPIWithClient(config.Token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("chat: connecting to telegram: %w", err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName, "id", api.Self.ID)

	return &Telegram{
		api:         api,
		pollTimeout: pollTimeout,
		throttle:    newThrottle(config.SendRate, config.SendBurst),
		logger:      logger,
	}, nil
}

// Name returns "telegram".
func (t *Telegram) Name() string { return "telegram" }

// Username returns the bot's Telegram username.
func (t *Telegram) Username() string { return t.api.Self.UserName }

// Run long-polls getUpdates and dispatches each text message to handler.
func (t *Telegram) Run(ctx context.Context, handler Handler) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = t.pollTimeout
	updateConfig.AllowedUpdates = []string{"message"}

	updates := t.api.GetUpdatesChan(updateConfig)
	defer t.api.StopReceivingUpdates()

	t.logger.Info("telegram transport running", "poll_timeout", t.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.dispatch(ctx, update, handler)
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, update tgbotapi.Update, handler Handler) {
	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil || message.Text == "" {
		return
	}

	incoming := NewUpdate(
		strconv.FormatInt(message.From.ID, 10),
		strconv.FormatInt(message.Chat.ID, 10),
		message.Text,
	)
	reply, ok := handler(ctx, incoming)
	if !ok || reply.Text == "" {
		return
	}
	if err := t.Send(ctx, incoming.ChatID, reply); err != nil {
		t.logger.Error("sending telegram reply failed",
			"chat_id", incoming.ChatID,
			"command", incoming.Command,
			"error", err,
		)
	}
}

// Send delivers reply to chatID (a decimal Telegram chat ID) silently.
// Code replies are sent as HTML preformatted blocks; everything else,
// including Markdown, is sent as plain text because Telegram's HTML
// subset cannot carry rendered Markdown.
func (t *Telegram) Send(ctx context.Context, chatID string, reply Reply) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("chat: invalid telegram chat ID %q: %w", chatID, err)
	}
	if err := t.throttle.wait(ctx); err != nil {
		return err
	}

	message := tgbotapi.NewMessage(id, "")
	message.DisableNotification = true
	if reply.Format == FormatCode {
		message.Text = CodeBlockHTML(TruncateUTF16(reply.Text, TelegramMessageLimit-64), reply.Language)
		message.ParseMode = tgbotapi.ModeHTML
	} else {
		message.Text = TruncateUTF16(reply.Text, TelegramMessageLimit)
	}

	if _, err := t.api.Send(message); err != nil {
		return fmt.Errorf("chat: telegram sendMessage: %w", err)
	}
	return nil
}

// botLogger adapts slog to tgbotapi's BotLogger interface.
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

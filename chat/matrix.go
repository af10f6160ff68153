// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bureau-foundation/scrivener/lib/clock"
	"github.com/bureau-foundation/scrivener/lib/ref"
	"github.com/bureau-foundation/scrivener/messaging"
)

// MatrixMessageLimit bounds reply bodies well under the 64 KiB event limit,
// leaving room for the HTML copy in formatted_body.
const MatrixMessageLimit = 16000

// matrixSyncFilter asks only for room messages and membership state, with
// presence and account data suppressed.
const matrixSyncFilter = `{"presence":{"types":[]},"account_data":{"types":[]},` +
	`"room":{"timeline":{"types":["m.room.message"]},"ephemeral":{"types":[]},` +
	`"account_data":{"types":[]},"state":{"types":["m.room.member"]}}}`

// MatrixSession is the part of *messaging.DirectSession the transport uses.
type MatrixSession interface {
	UserID() ref.UserID
	Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)
	SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error)
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)
	CloseIdleConnections()
}

// MatrixConfig configures a Matrix transport.
type MatrixConfig struct {
	// Session is the logged-in bot account.
	Session MatrixSession

	// AcceptInvite decides whether an invite from the given user is
	// joined. Nil rejects every invite.
	AcceptInvite func(userID string) bool

	// SyncTimeout is the /sync long-poll timeout. Default: 30 seconds.
	SyncTimeout time.Duration

	// MaxBackoff caps the delay between retries of a failed /sync,
	// which starts at one second and doubles. Default: 30 seconds.
	MaxBackoff time.Duration

	// SendRate and SendBurst limit outgoing messages.
	SendRate  float64
	SendBurst int

	// Clock drives retry backoff. If nil, the real clock is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Matrix is a Transport backed by the Matrix client-server API.
type Matrix struct {
	session      MatrixSession
	acceptInvite func(string) bool
	syncTimeout  time.Duration
	maxBackoff   time.Duration
	throttle     *throttle
	clock        clock.Clock
	logger       *slog.Logger
}

// NewMatrix creates a Matrix transport.
func NewMatrix(config MatrixConfig) (*Matrix, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("chat: matrix session is required")
	}
	acceptInvite := config.AcceptInvite
	if acceptInvite == nil {
		acceptInvite = func(string) bool { return false }
	}
	syncTimeout := config.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 30 * time.Second
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Matrix{
		session:      config.Session,
		acceptInvite: acceptInvite,
		syncTimeout:  syncTimeout,
		maxBackoff:   maxBackoff,
		throttle:     newThrottle(config.SendRate, config.SendBurst),
		clock:        clk,
		logger:       logger,
	}, nil
}

// Name returns "matrix".
func (m *Matrix) Name() string { return "matrix" }

// Run performs an initial sync, accepts pending invites, discards the
// message backlog, and then long-polls /sync, dispatching each new text
// message to handler. Transient sync errors are retried with exponential
// backoff; an invalid access token ends the loop with an error.
func (m *Matrix) Run(ctx context.Context, handler Handler) error {
	since, err := m.initialSync(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	m.logger.Info("matrix transport running", "user_id", m.session.UserID())

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		response, err := m.session.Sync(ctx, messaging.SyncOptions{
			Since:      since,
			Timeout:    int(m.syncTimeout / time.Millisecond),
			SetTimeout: true,
			Filter:     matrixSyncFilter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if messaging.IsAuthError(err) {
				return fmt.Errorf("chat: matrix session rejected (run \"scrivener login\" again): %w", err)
			}
			m.logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			m.session.CloseIdleConnections()
			select {
			case <-ctx.Done():
				return nil
			case <-m.clock.After(backoff):
			}
			backoff *= 2
			if backoff > m.maxBackoff {
				backoff = m.maxBackoff
			}
			continue
		}

		backoff = time.Second
		since = response.NextBatch
		m.handleSync(ctx, response, handler)
	}
}

// initialSync fetches the current position without a timeout. Invites
// found there are processed; timeline events are not, so commands sent
// while the bot was down are not replayed.
func (m *Matrix) initialSync(ctx context.Context) (string, error) {
	response, err := m.session.Sync(ctx, messaging.SyncOptions{Filter: matrixSyncFilter})
	if err != nil {
		return "", fmt.Errorf("chat: matrix initial sync: %w", err)
	}
	m.acceptInvites(ctx, response.Rooms.Invite)
	skipped := 0
	for _, room := range response.Rooms.Join {
		skipped += len(room.Timeline.Events)
	}
	if skipped > 0 {
		m.logger.Info("skipped message backlog from initial sync", "events", skipped)
	}
	return response.NextBatch, nil
}

func (m *Matrix) handleSync(ctx context.Context, response *messaging.SyncResponse, handler Handler) {
	m.acceptInvites(ctx, response.Rooms.Invite)

	// Map iteration order is random; sort rooms so a sync carrying
	// several rooms is processed the same way every time.
	roomIDs := make([]ref.RoomID, 0, len(response.Rooms.Join))
	for roomID := range response.Rooms.Join {
		roomIDs = append(roomIDs, roomID)
	}
	sort.Slice(roomIDs, func(i, j int) bool { return roomIDs[i].String() < roomIDs[j].String() })

	self := m.session.UserID()
	for _, roomID := range roomIDs {
		for _, event := range response.Rooms.Join[roomID].Timeline.Events {
			if event.Type != messaging.EventTypeMessage || event.Sender == self {
				continue
			}
			if event.ContentString("msgtype") != messaging.MsgTypeText {
				continue
			}
			body := event.ContentString("body")
			if body == "" {
				continue
			}
			m.dispatch(ctx, NewUpdate(event.Sender.String(), roomID.String(), body), handler)
		}
	}
}

func (m *Matrix) dispatch(ctx context.Context, update Update, handler Handler) {
	reply, ok := handler(ctx, update)
	if !ok || reply.Text == "" {
		return
	}
	if err := m.Send(ctx, update.ChatID, reply); err != nil {
		m.logger.Error("sending matrix reply failed",
			"room_id", update.ChatID,
			"command", update.Command,
			"error", err,
		)
	}
}

func (m *Matrix) acceptInvites(ctx context.Context, invites map[ref.RoomID]messaging.InvitedRoom) {
	self := m.session.UserID()
	for roomID, room := range invites {
		inviter, ok := room.Inviter(self)
		if !ok || !m.acceptInvite(inviter.String()) {
			m.logger.Debug("ignoring room invite", "room_id", roomID, "inviter", inviter)
			continue
		}
		m.logger.Info("accepting room invite", "room_id", roomID, "inviter", inviter)
		if _, err := m.session.JoinRoom(ctx, roomID); err != nil {
			m.logger.Error("failed to accept room invite", "room_id", roomID, "error", err)
		}
	}
}

// Send delivers reply to roomID as an m.notice.
func (m *Matrix) Send(ctx context.Context, roomID string, reply Reply) error {
	room, err := ref.ParseRoomID(roomID)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	content, err := matrixContent(reply)
	if err != nil {
		return err
	}
	if err := m.throttle.wait(ctx); err != nil {
		return err
	}
	if _, err := m.session.SendMessage(ctx, room, content); err != nil {
		return fmt.Errorf("chat: matrix send: %w", err)
	}
	return nil
}

// matrixContent renders a reply as notice content. Markdown and code get
// an HTML formatted_body; the body always carries the plain text.
func matrixContent(reply Reply) (messaging.MessageContent, error) {
	text := Truncate(reply.Text, MatrixMessageLimit)
	switch reply.Format {
	case FormatMarkdown:
		rendered, err := RenderHTML(text)
		if err != nil {
			return messaging.MessageContent{}, err
		}
		return messaging.NewHTMLNotice(text, rendered), nil
	case FormatCode:
		return messaging.NewHTMLNotice(text, CodeBlockHTML(text, reply.Language)), nil
	default:
		return messaging.NewNotice(text), nil
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "github.com/bureau-foundation/scrivener/lib/ref"

// Event types and message types used by scrivener.
const (
	EventTypeMessage ref.EventType = "m.room.message"
	EventTypeMember  ref.EventType = "m.room.member"

	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"

	// FormatHTML is the only formatted_body format Matrix defines.
	FormatHTML = "org.matrix.custom.html"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string          `json:"type"`
	Identifier               *UserIdentifier `json:"identifier,omitempty"`
	Password                 string          `json:"password"`
	DeviceID                 string          `json:"device_id,omitempty"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name,omitempty"`
}

// UserIdentifier identifies the account in a login request.
type UserIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// MessageContent is the content of an m.room.message event. Format and
// FormattedBody are set together for rich text; Body is always the
// plain-text fallback.
type MessageContent struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// NewTextMessage creates a plain m.text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeText, Body: body}
}

// NewNotice creates a plain m.notice message. Bots reply with notices so
// that other bots do not respond to them.
func NewNotice(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeNotice, Body: body}
}

// NewHTMLNotice creates an m.notice with an HTML formatted body and a
// plain-text fallback.
func NewHTMLNotice(body, html string) MessageContent {
	return MessageContent{
		MsgType:       MsgTypeNotice,
		Body:          body,
		Format:        FormatHTML,
		FormattedBody: html,
	}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	StateKey       *string        `json:"state_key,omitempty"`
}

// ContentString returns the string value of a top-level content key, or
// "" when the key is absent or not a string.
func (e Event) ContentString(key string) string {
	value, _ := e.Content[key].(string)
	return value
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds
	SetTimeout bool   // send the timeout parameter (distinguishes "unset" from 0)
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership state.
// Map keys are room IDs, validated by ref.RoomID's TextUnmarshaler.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// InvitedRoom contains the stripped state of a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// Inviter returns the sender of the m.room.member invite event targeting
// userID, if the invite state contains one.
func (r InvitedRoom) Inviter(userID ref.UserID) (ref.UserID, bool) {
	for _, event := range r.InviteState.Events {
		if event.Type != EventTypeMember || event.StateKey == nil || *event.StateKey != userID.String() {
			continue
		}
		if event.ContentString("membership") == "invite" {
			return event.Sender, true
		}
	}
	return ref.UserID{}, false
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events  []Event `json:"events"`
	Limited bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by SendMessage and SendEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

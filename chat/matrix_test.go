// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/scrivener/lib/clock"
	"github.com/bureau-foundation/scrivener/lib/ref"
	"github.com/bureau-foundation/scrivener/lib/testutil"
	"github.com/bureau-foundation/scrivener/messaging"
)

type syncResult struct {
	response *messaging.SyncResponse
	err      error
}

type sentMessage struct {
	roomID  ref.RoomID
	content messaging.MessageContent
}

// fakeSession serves queued sync results in order and blocks once the
// queue is empty until the context is cancelled.
type fakeSession struct {
	userID  ref.UserID
	results chan syncResult
	sent    chan sentMessage

	mu          sync.Mutex
	syncOptions []messaging.SyncOptions
	joined      []ref.RoomID
}

func newFakeSession(results ...syncResult) *fakeSession {
	session := &fakeSession{
		userID:  ref.MustParseUserID("@scrivener:local"),
		results: make(chan syncResult, len(results)),
		sent:    make(chan sentMessage, 16),
	}
	for _, result := range results {
		session.results <- result
	}
	return session
}

func (f *fakeSession) UserID() ref.UserID { return f.userID }

func (f *fakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	f.mu.Lock()
	f.syncOptions = append(f.syncOptions, options)
	f.mu.Unlock()
	select {
	case result := <-f.results:
		return result.response, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeSession) SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	f.sent <- sentMessage{roomID: roomID, content: content}
	return ref.EventID{}, nil
}

func (f *fakeSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, roomID)
	return roomID, nil
}

func (f *fakeSession) CloseIdleConnections() {}

func textEvent(sender, msgtype, body string) messaging.Event {
	return messaging.Event{
		Type:    messaging.EventTypeMessage,
		Sender:  ref.MustParseUserID(sender),
		Content: map[string]any{"msgtype": msgtype, "body": body},
	}
}

func inviteFrom(inviter string) messaging.InvitedRoom {
	stateKey := "@scrivener:local"
	return messaging.InvitedRoom{InviteState: messaging.StateSection{Events: []messaging.Event{{
		Type:     messaging.EventTypeMember,
		Sender:   ref.MustParseUserID(inviter),
		StateKey: &stateKey,
		Content:  map[string]any{"membership": "invite"},
	}}}}
}

func roomTimeline(roomID string, events ...messaging.Event) map[ref.RoomID]messaging.JoinedRoom {
	return map[ref.RoomID]messaging.JoinedRoom{
		ref.MustParseRoomID(roomID): {Timeline: messaging.TimelineSection{Events: events}},
	}
}

// recordingHandler records updates and answers every command with "Pong.".
type recordingHandler struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recordingHandler) handle(ctx context.Context, update Update) (Reply, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	if !update.IsCommand() {
		return Reply{}, false
	}
	return PlainReply("Pong."), true
}

func (r *recordingHandler) recorded() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

func runMatrix(t *testing.T, transport *Matrix, handler Handler) (cancel func() error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- transport.Run(ctx, handler) }()
	return func() error {
		stop()
		return testutil.RequireReceive(t, done, 5*time.Second, "waiting for Run to return after cancellation")
	}
}

func waitSent(t *testing.T, session *fakeSession) sentMessage {
	t.Helper()
	return testutil.RequireReceive(t, session.sent, 5*time.Second, "waiting for a reply")
}

func TestMatrixDispatch(t *testing.T) {
	t.Parallel()

	initial := &messaging.SyncResponse{
		NextBatch: "s1",
		Rooms: messaging.RoomsSection{
			Join: roomTimeline("!room:local", textEvent("@alice:local", messaging.MsgTypeText, "/ping backlog")),
			Invite: map[ref.RoomID]messaging.InvitedRoom{
				ref.MustParseRoomID("!friend:local"):   inviteFrom("@alice:local"),
				ref.MustParseRoomID("!stranger:local"): inviteFrom("@mallory:local"),
			},
		},
	}
	incremental := &messaging.SyncResponse{
		NextBatch: "s2",
		Rooms: messaging.RoomsSection{
			Join: roomTimeline("!room:local",
				textEvent("@scrivener:local", messaging.MsgTypeText, "/ping from myself"),
				textEvent("@alice:local", messaging.MsgTypeNotice, "/ping as notice"),
				textEvent("@alice:local", messaging.MsgTypeText, "/ping@scrivener now"),
			),
		},
	}
	session := newFakeSession(syncResult{response: initial}, syncResult{response: incremental})

	transport, err := NewMatrix(MatrixConfig{
		Session:      session,
		AcceptInvite: func(userID string) bool { return userID == "@alice:local" },
		Logger:       testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	handler := &recordingHandler{}
	stop := runMatrix(t, transport, handler.handle)
	sent := waitSent(t, session)
	if err := stop(); err != nil {
		t.Fatalf("Run returned %v, want nil on cancellation", err)
	}

	want := []Update{{
		UserID:  "@alice:local",
		ChatID:  "!room:local",
		Text:    "/ping@scrivener now",
		Command: "ping",
		Args:    []string{"now"},
	}}
	if diff := cmp.Diff(want, handler.recorded()); diff != "" {
		t.Errorf("dispatched updates mismatch (-want +got):\n%s", diff)
	}

	if sent.roomID.String() != "!room:local" {
		t.Errorf("reply room = %q", sent.roomID)
	}
	if diff := cmp.Diff(messaging.NewNotice("Pong."), sent.content); diff != "" {
		t.Errorf("reply content mismatch (-want +got):\n%s", diff)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if diff := cmp.Diff([]ref.RoomID{ref.MustParseRoomID("!friend:local")}, session.joined, cmp.Comparer(func(a, b ref.RoomID) bool { return a == b })); diff != "" {
		t.Errorf("joined rooms mismatch (-want +got):\n%s", diff)
	}
	if session.syncOptions[0].SetTimeout || session.syncOptions[0].Since != "" {
		t.Errorf("initial sync options = %+v, want no since and no timeout", session.syncOptions[0])
	}
	second := session.syncOptions[1]
	if second.Since != "s1" || !second.SetTimeout || second.Timeout != 30000 || second.Filter == "" {
		t.Errorf("incremental sync options = %+v", second)
	}
}

func TestMatrixBackoff(t *testing.T) {
	t.Parallel()

	transient := errors.New("connection reset")
	message := &messaging.SyncResponse{
		NextBatch: "s3",
		Rooms:     messaging.RoomsSection{Join: roomTimeline("!room:local", textEvent("@alice:local", messaging.MsgTypeText, "/ping"))},
	}
	session := newFakeSession(
		syncResult{response: &messaging.SyncResponse{NextBatch: "s1"}},
		syncResult{err: transient},
		syncResult{err: transient},
		syncResult{response: message},
	)
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	transport, err := NewMatrix(MatrixConfig{Session: session, Clock: fake, Logger: testutil.DiscardLogger()})
	if err != nil {
		t.Fatal(err)
	}
	handler := &recordingHandler{}
	stop := runMatrix(t, transport, handler.handle)

	// First failure waits one second.
	fake.WaitForTimers(1)
	fake.Advance(time.Second)

	// Second failure waits two seconds: one second is not enough.
	fake.WaitForTimers(1)
	fake.Advance(time.Second)
	if fake.PendingCount() != 1 {
		t.Fatalf("pending timers = %d after 1s of a 2s backoff, want 1", fake.PendingCount())
	}
	fake.Advance(time.Second)

	waitSent(t, session)
	if err := stop(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if got := len(handler.recorded()); got != 1 {
		t.Errorf("handled %d updates, want 1", got)
	}
}

func TestMatrixAuthErrorStops(t *testing.T) {
	t.Parallel()

	session := newFakeSession(
		syncResult{response: &messaging.SyncResponse{NextBatch: "s1"}},
		syncResult{err: &messaging.MatrixError{Code: messaging.ErrCodeUnknownToken, StatusCode: 401}},
	)
	transport, err := NewMatrix(MatrixConfig{Session: session, Logger: testutil.DiscardLogger()})
	if err != nil {
		t.Fatal(err)
	}

	err = transport.Run(context.Background(), (&recordingHandler{}).handle)
	if !messaging.IsAuthError(err) {
		t.Fatalf("Run error = %v, want an auth error", err)
	}
}

func TestMatrixContent(t *testing.T) {
	t.Parallel()

	code, err := matrixContent(Reply{Text: "1 x := 1", Format: FormatCode, Language: "go"})
	if err != nil {
		t.Fatal(err)
	}
	want := messaging.NewHTMLNotice("1 x := 1", `<pre><code class="language-go">1 x := 1</code></pre>`)
	if diff := cmp.Diff(want, code); diff != "" {
		t.Errorf("code content mismatch (-want +got):\n%s", diff)
	}

	help, err := matrixContent(Reply{Text: "**bold**", Format: FormatMarkdown})
	if err != nil {
		t.Fatal(err)
	}
	if help.Body != "**bold**" || help.FormattedBody != "<p><strong>bold</strong></p>" || help.Format != messaging.FormatHTML {
		t.Errorf("markdown content = %+v", help)
	}
}

func TestNewMatrixRequiresSession(t *testing.T) {
	t.Parallel()

	if _, err := NewMatrix(MatrixConfig{}); err == nil {
		t.Fatal("NewMatrix without a session succeeded")
	}
}

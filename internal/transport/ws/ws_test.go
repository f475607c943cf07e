package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/notes/internal/auth"
	"github.com/vedran77/notes/internal/domain"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type wsFixture struct {
	hub    *Hub
	tokens *auth.TokenService
	url    string
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	tokens := auth.NewTokenService("ws-secret", time.Hour)
	srv := httptest.NewServer(ServeWS(hub, tokens))
	t.Cleanup(srv.Close)

	return &wsFixture{hub: hub, tokens: tokens, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (f *wsFixture) dial(t *testing.T, ctx context.Context, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.Issue(userID)
	require.NoError(t, err)

	conn, _, err := websocket.Dial(ctx, f.url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func (f *wsFixture) waitForConnections(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		got, err := f.hub.ConnectionCount(context.Background())
		return err == nil && got == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_RejectsBadTokens(t *testing.T) {
	f := newWSFixture(t)
	httpURL := "http" + strings.TrimPrefix(f.url, "ws")

	resp, err := http.Get(httpURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(httpURL + "?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotifier_DeliversNoteSharedToTarget(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	target, other := uuid.New(), uuid.New()
	targetConn := f.dial(t, ctx, target)
	otherConn := f.dial(t, ctx, other)
	f.waitForConnections(t, 2)

	note := &domain.Note{ID: uuid.New(), Title: "A", OwnerID: other, SharedWith: []uuid.UUID{target}}
	NewHubNotifier(f.hub).NotifyNoteShared(target, note)

	var evt Event
	require.NoError(t, wsjson.Read(ctx, targetConn, &evt))
	assert.Equal(t, EventTypeNoteShared, evt.Type)

	var payload NoteSharedPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, note.ID, payload.Note.ID)
	assert.Equal(t, "A", payload.Note.Title)

	// the other user gets nothing; a short read deadline proves it
	readCtx, readCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer readCancel()
	err := wsjson.Read(readCtx, otherConn, &evt)
	assert.Error(t, err)
}

func TestClient_PingPongAndUnknownEvents(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := f.dial(t, ctx, uuid.New())

	require.NoError(t, wsjson.Write(ctx, conn, Event{Type: EventTypePing}))
	var evt Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	assert.Equal(t, EventTypePong, evt.Type)

	require.NoError(t, wsjson.Write(ctx, conn, Event{Type: "bogus"}))
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	assert.Equal(t, EventTypeError, evt.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "UNKNOWN_EVENT", payload.Code)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := uuid.New()
	first := f.dial(t, ctx, user)
	f.dial(t, ctx, user)
	f.waitForConnections(t, 2)

	first.Close(websocket.StatusNormalClosure, "bye")
	f.waitForConnections(t, 1)
}

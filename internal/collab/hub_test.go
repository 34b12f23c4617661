package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/auth"
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/storage"
	"github.com/vectorforge/canvas/internal/store"
)

type staticAuth struct{}

func (staticAuth) ValidateToken(token string) (string, error) {
	if token != "good" {
		return "", errors.New("bad token")
	}
	return "user_1", nil
}

func (staticAuth) GetUser(_ context.Context, userID string) (*auth.User, error) {
	return &auth.User{ID: userID, DisplayName: "Ada"}, nil
}

type ownerOnly struct{}

func (ownerOnly) CanEdit(_ context.Context, documentID, userID string) error {
	if documentID == "doc_private" {
		return errors.New("forbidden")
	}
	return nil
}

func startServer(t *testing.T) (*httptest.Server, *memorySnapshots) {
	t.Helper()

	snaps := &memorySnapshots{snaps: map[string]storage.Snapshot{}}
	hub := NewHub(NewPersistence(snaps, time.Minute), zap.NewNop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	r := mux.NewRouter()
	r.Handle("/ws/document/{documentId}", NewHandler(hub, staticAuth{}, ownerOnly{}, nil, zap.NewNop()))
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, snaps
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// next reads messages until one of type msgType arrives.
func next(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s", msgType)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := newMessage(msgType, payload)
	require.NoError(t, err)
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestPlaygroundSession(t *testing.T) {
	srv, _ := startServer(t)
	path := "/ws/document/" + PlaygroundDocumentID

	alice := dial(t, srv, path)
	welcome := next(t, alice, TypeWelcome)
	var hello WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &hello))
	assert.Equal(t, "Anonymous", hello.DisplayName)

	syncMsg := next(t, alice, TypeDocSync)
	var initial DocSyncPayload
	require.NoError(t, json.Unmarshal(syncMsg.Payload, &initial))
	var doc document.Document
	require.NoError(t, json.Unmarshal(initial.Document, &doc))
	sticker := layerNamed(t, &doc, "Sticker")

	bob := dial(t, srv, path)
	next(t, bob, TypeDocSync)
	next(t, alice, TypePresenceJoin)

	send(t, bob, TypePresenceUpdate, PresencePayload{
		Cursor:    &CursorPos{X: 12, Y: 34},
		Selection: []string{sticker.ID},
		Mode:      "moving",
	})
	presence := next(t, alice, TypePresenceUpdate)
	var shared PresencePayload
	require.NoError(t, json.Unmarshal(presence.Payload, &shared))
	assert.Equal(t, []string{sticker.ID}, shared.Selection)
	assert.Equal(t, "moving", shared.Mode)

	move := envelope(t, store.MoveLayers{IDs: []string{sticker.ID}, Delta: geometry.Point{X: 10, Y: 0}})
	send(t, alice, TypeOpSubmit, OperationSubmitPayload{Operation: Operation{ID: "op_1", PageID: doc.Pages[0].ID, Action: move}})

	ackMsg := next(t, alice, TypeOpAck)
	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(ackMsg.Payload, &ack))
	assert.Equal(t, "op_1", ack.OperationID)
	assert.Equal(t, int64(1), ack.ServerSeq)

	broadcast := next(t, bob, TypeOpBroadcast)
	var remote OperationBroadcastPayload
	require.NoError(t, json.Unmarshal(broadcast.Payload, &remote))
	assert.Equal(t, int64(1), remote.ServerSeq)
	action, err := remote.Operation.Action.Decode()
	require.NoError(t, err)
	assert.Equal(t, store.MoveLayers{IDs: []string{sticker.ID}, Delta: geometry.Point{X: 10, Y: 0}}, action)

	send(t, alice, TypeOpSubmit, OperationSubmitPayload{Operation: Operation{
		ID:     "op_2",
		Action: envelope(t, store.SelectLayers{IDs: []string{sticker.ID}}),
	}})
	nackMsg := next(t, alice, TypeOpNack)
	var nack OperationNackPayload
	require.NoError(t, json.Unmarshal(nackMsg.Payload, &nack))
	assert.Equal(t, "op_2", nack.OperationID)
	assert.Contains(t, nack.Reason, "does not edit the document")

	send(t, alice, "chat.message", map[string]string{"text": "hi"})
	next(t, alice, TypeError)

	// A late joiner sees the edit in its initial sync.
	carol := dial(t, srv, path)
	lateMsg := next(t, carol, TypeDocSync)
	var late DocSyncPayload
	require.NoError(t, json.Unmarshal(lateMsg.Payload, &late))
	assert.Equal(t, int64(1), late.ServerSeq)
	var lateDoc document.Document
	require.NoError(t, json.Unmarshal(late.Document, &lateDoc))
	assert.Equal(t, sticker.Frame.X+10, lateDoc.Layers[sticker.ID].Frame.X)

	require.NoError(t, bob.Close(websocket.StatusNormalClosure, ""))
	next(t, alice, TypePresenceLeave)
}

func TestHandlerRejects(t *testing.T) {
	srv, _ := startServer(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "missing token", path: "/ws/document/doc_1", status: http.StatusUnauthorized},
		{name: "bad token", path: "/ws/document/doc_1?token=bad", status: http.StatusUnauthorized},
		{name: "not owner", path: "/ws/document/doc_private?token=good", status: http.StatusForbidden},
		{name: "no snapshot", path: "/ws/document/doc_1?token=good", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+tt.path, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRoomSavesWhenEmptied(t *testing.T) {
	srv, snaps := startServer(t)

	doc := document.NewSampleDocument("doc_saved")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	snaps.snaps["doc_saved"] = storage.Snapshot{ID: "snap_1", DocumentID: "doc_saved", Version: 1, Document: data}

	conn := dial(t, srv, "/ws/document/doc_saved?token=good")
	next(t, conn, TypeDocSync)

	sticker := layerNamed(t, doc, "Sticker")
	send(t, conn, TypeOpSubmit, OperationSubmitPayload{Operation: Operation{
		ID:     "op_1",
		Action: envelope(t, store.SetLayerVisible{IDs: []string{sticker.ID}, Visible: false}),
	}})
	next(t, conn, TypeOpAck)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool {
		snaps.mu.Lock()
		defer snaps.mu.Unlock()
		return snaps.snaps["doc_saved"].Version == 2
	}, 5*time.Second, 10*time.Millisecond)

	snaps.mu.Lock()
	var saved document.Document
	require.NoError(t, json.Unmarshal(snaps.snaps["doc_saved"].Document, &saved))
	snaps.mu.Unlock()
	assert.False(t, saved.Layers[sticker.ID].Visible)
}

package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("hub closed")

const saveTimeout = 10 * time.Second

type Room struct {
	documentID string
	clients    map[string]*Client // clientID -> client
	presence   *PresenceManager
	doc        *DocumentState

	// opMu orders operation application with the broadcasts it produces and
	// with new clients receiving their initial doc.sync.
	opMu sync.Mutex
}

func NewRoom(documentID string, doc *DocumentState) *Room {
	return &Room{
		documentID: documentID,
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		doc:        doc,
	}
}

type registration struct {
	client *Client
	doc    *DocumentState
}

type Hub struct {
	mu           sync.RWMutex
	rooms        map[string]*Room // documentID -> room
	persist      *Persistence
	logger       *zap.Logger
	saveInterval time.Duration
	register     chan registration
	unregister   chan *Client
	done         chan struct{}
}

func NewHub(persist *Persistence, logger *zap.Logger, saveInterval time.Duration) *Hub {
	if saveInterval <= 0 {
		saveInterval = 30 * time.Second
	}
	return &Hub{
		rooms:        make(map[string]*Room),
		persist:      persist,
		logger:       logger,
		saveInterval: saveInterval,
		register:     make(chan registration),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
	}
}

// Run owns room membership until ctx is cancelled. Dirty documents are saved
// every saveInterval, when a room empties, and on shutdown.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case reg := <-h.register:
			h.addClient(reg)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveAll()
		case <-ctx.Done():
			close(h.done)
			h.shutdown()
			return nil
		}
	}
}

// Open returns the live document for documentID, loading it when no room is
// open for it yet.
func (h *Hub) Open(ctx context.Context, documentID string) (*DocumentState, error) {
	h.mu.RLock()
	room, ok := h.rooms[documentID]
	h.mu.RUnlock()
	if ok {
		return room.doc, nil
	}

	doc, err := h.persist.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return NewDocumentState(doc), nil
}

// Join adds client to its document's room. doc comes from Open and is only
// used if the room has not been created in the meantime.
func (h *Hub) Join(ctx context.Context, client *Client, doc *DocumentState) error {
	select {
	case h.register <- registration{client: client, doc: doc}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) room(documentID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[documentID]
	return room, ok
}

func (h *Hub) addClient(reg registration) {
	client := reg.client

	h.mu.Lock()
	room, ok := h.rooms[client.DocumentID]
	if !ok {
		room = NewRoom(client.DocumentID, reg.doc)
		h.rooms[client.DocumentID] = room
	}
	h.mu.Unlock()

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		client.Send(welcome)
	}

	room.opMu.Lock()
	snapshot, err := room.doc.Sync()
	if err != nil {
		room.opMu.Unlock()
		h.logger.Error("sync document", zap.Error(err), zap.String("document", client.DocumentID))
		client.Close(websocket.StatusInternalError, "document unavailable")
		return
	}
	if msg, err := newMessage(TypeDocSync, snapshot); err == nil {
		client.Send(msg)
	}
	h.mu.Lock()
	room.clients[client.ClientID] = client
	count := len(room.clients)
	h.mu.Unlock()
	room.opMu.Unlock()

	if msg, err := room.presence.StateMessage(); err == nil {
		client.Send(msg)
	}

	join, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		join.UserID = client.UserID
		h.broadcastToRoom(client.DocumentID, join, client.ClientID)
	}

	h.logger.Info("client joined",
		zap.String("user", client.UserID),
		zap.String("document", client.DocumentID),
		zap.Int("clients", count))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DocumentID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		client.closeSend()
		return
	}

	delete(room.clients, client.ClientID)
	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.DocumentID)
	}
	h.mu.Unlock()

	client.closeSend()
	room.presence.Remove(client.ClientID)

	if empty {
		h.saveRoom(room)
	} else if leave, err := newMessage(TypePresenceLeave, PresenceLeavePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
	}); err == nil {
		leave.UserID = client.UserID
		h.broadcastToRoom(client.DocumentID, leave, "")
	}

	h.logger.Info("client left", zap.String("user", client.UserID), zap.String("document", client.DocumentID))
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		h.logger.Warn("unknown message type", zap.String("type", msg.Type), zap.String("user", sender.UserID))
		sender.sendError("unknown message type " + msg.Type)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		h.logger.Warn("invalid presence payload", zap.Error(err))
		sender.sendError("invalid presence payload")
		return
	}

	presence.UserID = sender.UserID
	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.DocumentID)
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	out, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	out.UserID = sender.UserID
	out.ClientID = sender.ClientID
	h.broadcastToRoom(sender.DocumentID, out, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sender.sendError("invalid operation payload")
		return
	}
	op := submit.Operation

	room, ok := h.room(sender.DocumentID)
	if !ok {
		return
	}

	room.opMu.Lock()
	defer room.opMu.Unlock()

	seq, changed, err := room.doc.Apply(op)
	if err != nil {
		h.logger.Debug("operation rejected", zap.Error(err), zap.String("op", op.ID), zap.String("user", sender.UserID))
		if nack, merr := newMessage(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()}); merr == nil {
			sender.Send(nack)
		}
		return
	}

	if ack, err := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: serverTimestamp(),
	}); err == nil {
		sender.Send(ack)
	}

	if !changed {
		return
	}

	doc := room.doc.Document()
	room.presence.PruneSelection(func(id string) bool {
		_, ok := doc.Layers[id]
		return ok
	})

	if out, err := newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	}); err == nil {
		out.UserID = sender.UserID
		h.broadcastToRoom(sender.DocumentID, out, sender.ClientID)
	}
}

func (h *Hub) broadcastToRoom(documentID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[documentID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) saveRoom(room *Room) {
	doc, dirty := room.doc.TakeDirty()
	if !dirty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := h.persist.Save(ctx, room.documentID, doc); err != nil {
		room.doc.MarkDirty()
		h.logger.Error("save document", zap.Error(err), zap.String("document", room.documentID))
		return
	}
	h.logger.Debug("document saved", zap.String("document", room.documentID))
}

func (h *Hub) shutdown() {
	h.logger.Info("saving all documents")
	h.saveAll()

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			go c.Close(websocket.StatusGoingAway, "server shutting down")
		}
		delete(h.rooms, id)
	}
}

package collab

import (
	"encoding/json"

	"github.com/vectorforge/canvas/internal/store"
)

type Message struct {
	Type       string          `json:"type"`
	DocumentID string          `json:"documentId,omitempty"`
	ClientID   string          `json:"clientId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeWelcome = "welcome"
	TypeError   = "error"

	TypeDocSync = "doc.sync"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

type WelcomePayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// DocSyncPayload carries the full document and the sequence number of the
// last operation folded into it.
type DocSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresencePayload is what a collaborator shares about their session: the
// pointer in document coordinates, the selected layers and the gesture mode.
type PresencePayload struct {
	UserID      string     `json:"userId,omitempty"`
	Cursor      *CursorPos `json:"cursor,omitempty"`
	PageID      string     `json:"pageId,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Mode        string     `json:"mode,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// PresenceStatePayload maps client ids to their last presence update.
type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

// Operation is one wire-encoded document edit. PageID names the page the
// edit was made on; geometry edits resolve their targets against it.
type Operation struct {
	ID        string         `json:"id"`
	ClientSeq int64          `json:"clientSeq"`
	PageID    string         `json:"pageId,omitempty"`
	Action    store.Envelope `json:"action"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}

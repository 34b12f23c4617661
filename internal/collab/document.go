package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/store"
)

var (
	ErrNotAnEdit   = errors.New("action does not edit the document")
	ErrUnknownPage = errors.New("unknown page")
)

// DocumentState holds the authoritative document for a room. Operations are
// folded in with the same reducer the editors run locally.
type DocumentState struct {
	mu        sync.RWMutex
	doc       *document.Document
	serverSeq int64
	dirty     bool
}

func NewDocumentState(doc *document.Document) *DocumentState {
	return &DocumentState{doc: doc}
}

func (ds *DocumentState) Document() *document.Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc
}

// Sync returns the serialized document and the sequence it reflects.
func (ds *DocumentState) Sync() (DocSyncPayload, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	data, err := json.Marshal(ds.doc)
	if err != nil {
		return DocSyncPayload{}, fmt.Errorf("marshal document: %w", err)
	}
	return DocSyncPayload{Document: data, ServerSeq: ds.serverSeq}, nil
}

// Apply decodes and reduces op. It returns the new server sequence and whether
// the document changed; an op that decodes but has no effect (its targets were
// deleted by someone else, say) is accepted without advancing the sequence.
func (ds *DocumentState) Apply(op Operation) (int64, bool, error) {
	action, err := op.Action.Decode()
	if err != nil {
		return 0, false, err
	}
	if !store.IsDocumentEdit(action) {
		return 0, false, fmt.Errorf("%w: %s", ErrNotAnEdit, action.Name())
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	s := store.NewState(ds.doc)
	if op.PageID != "" {
		if _, ok := ds.doc.Page(op.PageID); !ok {
			return 0, false, fmt.Errorf("%w: %s", ErrUnknownPage, op.PageID)
		}
		s = store.Reduce(s, store.SelectPage{PageID: op.PageID})
	}

	next := store.Reduce(s, action)
	if next.Document == ds.doc {
		return ds.serverSeq, false, nil
	}

	// The reducer hands back a fresh copy, so stamping it in place is safe.
	next.Document.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	ds.doc = next.Document
	ds.serverSeq++
	ds.dirty = true
	return ds.serverSeq, true, nil
}

// TakeDirty returns the document if it changed since the last call.
func (ds *DocumentState) TakeDirty() (*document.Document, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false
	}
	ds.dirty = false
	return ds.doc, true
}

// MarkDirty flags the document for the next save, used when a save failed.
func (ds *DocumentState) MarkDirty() {
	ds.mu.Lock()
	ds.dirty = true
	ds.mu.Unlock()
}

func serverTimestamp() int64 {
	return time.Now().UnixMilli()
}

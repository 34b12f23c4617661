package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/storage"
	"github.com/vectorforge/canvas/internal/typeid"
)

// PlaygroundDocumentID is open to anonymous users and never written to the
// database; it lives only in the snapshot cache.
const PlaygroundDocumentID = "doc_playground"

var ErrDocumentNotFound = errors.New("document not found")

// SnapshotStore is the slice of storage.Postgres the hub persists through.
type SnapshotStore interface {
	GetLatestSnapshot(ctx context.Context, documentID string) (storage.Snapshot, error)
	SaveSnapshot(ctx context.Context, id, documentID string, doc json.RawMessage) (storage.Snapshot, error)
}

// Persistence loads and saves room documents. Serialized snapshots are kept in
// an expiring cache so a room that empties and is reopened shortly after does
// not go back to the database.
type Persistence struct {
	store SnapshotStore
	cache *cache.Cache
}

func NewPersistence(store SnapshotStore, ttl time.Duration) *Persistence {
	return &Persistence{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *Persistence) Load(ctx context.Context, documentID string) (*document.Document, error) {
	if raw, ok := p.cache.Get(documentID); ok {
		return decodeDocument(raw.([]byte))
	}

	if documentID == PlaygroundDocumentID {
		doc := document.NewSampleDocument(PlaygroundDocumentID)
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal playground: %w", err)
		}
		p.cache.Set(documentID, data, cache.NoExpiration)
		return doc, nil
	}

	snap, err := p.store.GetLatestSnapshot(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	doc, err := decodeDocument(snap.Document)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(documentID, []byte(snap.Document))
	return doc, nil
}

// Save writes a new snapshot. The cache is updated first so a reload racing
// the database write still sees the latest document.
func (p *Persistence) Save(ctx context.Context, documentID string, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if documentID == PlaygroundDocumentID {
		p.cache.Set(documentID, data, cache.NoExpiration)
		return nil
	}
	p.cache.SetDefault(documentID, data)

	if _, err := p.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), documentID, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Forget drops a cached snapshot, used when the document is deleted.
func (p *Persistence) Forget(documentID string) {
	p.cache.Delete(documentID)
}

func decodeDocument(data []byte) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

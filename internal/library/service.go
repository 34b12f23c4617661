package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/storage"
	"github.com/vectorforge/canvas/internal/typeid"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrForbidden = errors.New("forbidden")
)

const (
	TemplateBlank  = "blank"
	TemplateSample = "sample"
)

// DocumentStore is the slice of storage.Postgres the library needs.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d storage.Document, first storage.Snapshot) (storage.Document, error)
	GetDocument(ctx context.Context, id string) (storage.Document, error)
	ListDocumentsForOwner(ctx context.Context, ownerID string) ([]storage.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	GetLatestSnapshot(ctx context.Context, documentID string) (storage.Snapshot, error)
}

type Service struct {
	store    DocumentStore
	onDelete []func(documentID string)
}

func NewService(store DocumentStore) *Service {
	return &Service{store: store}
}

// OnDelete registers fn to run after a document is deleted.
func (s *Service) OnDelete(fn func(documentID string)) {
	s.onDelete = append(s.onDelete, fn)
}

type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create stores a new document owned by ownerID together with its first snapshot.
func (s *Service) Create(ctx context.Context, name, template, ownerID string) (*Summary, error) {
	docID := typeid.NewDocumentID()

	var doc *document.Document
	switch template {
	case "", TemplateBlank:
		doc = document.NewEmptyDocument(docID, name, typeid.NewPageID())
	case TemplateSample:
		doc = document.NewSampleDocument(docID)
		doc.Name = name
	default:
		return nil, fmt.Errorf("unknown template %q", template)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	doc.CreatedAt, doc.UpdatedAt = now, now

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	created, err := s.store.CreateDocument(ctx,
		storage.Document{ID: docID, Name: name, OwnerID: ownerID},
		storage.Snapshot{ID: typeid.NewSnapshotID(), Version: 1, Document: docJSON},
	)
	if err != nil {
		return nil, err
	}

	return toSummary(created), nil
}

func (s *Service) Get(ctx context.Context, documentID, userID string) (*Summary, error) {
	d, err := s.authorize(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	return toSummary(d), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	docs, err := s.store.ListDocumentsForOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(docs))
	for i, d := range docs {
		summaries[i] = *toSummary(d)
	}
	return summaries, nil
}

func (s *Service) Delete(ctx context.Context, documentID, userID string) error {
	if _, err := s.authorize(ctx, documentID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	for _, fn := range s.onDelete {
		fn(documentID)
	}
	return nil
}

func (s *Service) LatestSnapshot(ctx context.Context, documentID, userID string) (json.RawMessage, error) {
	if _, err := s.authorize(ctx, documentID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GetLatestSnapshot(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap.Document, nil
}

// CanEdit reports whether userID may open documentID for collaborative editing.
func (s *Service) CanEdit(ctx context.Context, documentID, userID string) error {
	_, err := s.authorize(ctx, documentID, userID)
	return err
}

func (s *Service) authorize(ctx context.Context, documentID, userID string) (storage.Document, error) {
	d, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Document{}, ErrNotFound
		}
		return storage.Document{}, err
	}
	if d.OwnerID != userID {
		return storage.Document{}, ErrForbidden
	}
	return d, nil
}

func toSummary(d storage.Document) *Summary {
	return &Summary{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/auth"
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/storage"
)

type memoryDocuments struct {
	docs      map[string]storage.Document
	snapshots map[string]storage.Snapshot
}

func newMemoryDocuments() *memoryDocuments {
	return &memoryDocuments{docs: map[string]storage.Document{}, snapshots: map[string]storage.Snapshot{}}
}

func (m *memoryDocuments) CreateDocument(_ context.Context, d storage.Document, first storage.Snapshot) (storage.Document, error) {
	d.CreatedAt, d.UpdatedAt = time.Now(), time.Now()
	first.DocumentID = d.ID
	m.docs[d.ID] = d
	m.snapshots[d.ID] = first
	return d, nil
}

func (m *memoryDocuments) GetDocument(_ context.Context, id string) (storage.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	return d, nil
}

func (m *memoryDocuments) ListDocumentsForOwner(_ context.Context, ownerID string) ([]storage.Document, error) {
	var out []storage.Document
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryDocuments) DeleteDocument(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.docs, id)
	delete(m.snapshots, id)
	return nil
}

func (m *memoryDocuments) GetLatestSnapshot(_ context.Context, documentID string) (storage.Snapshot, error) {
	s, ok := m.snapshots[documentID]
	if !ok {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	return s, nil
}

func TestCreateSeedsValidDocument(t *testing.T) {
	ctx := context.Background()

	for _, template := range []string{"", TemplateBlank, TemplateSample} {
		t.Run("template "+template, func(t *testing.T) {
			s := NewService(newMemoryDocuments())

			summary, err := s.Create(ctx, "Landing page", template, "user_1")
			require.NoError(t, err)
			assert.Equal(t, "Landing page", summary.Name)

			raw, err := s.LatestSnapshot(ctx, summary.ID, "user_1")
			require.NoError(t, err)

			var doc document.Document
			require.NoError(t, json.Unmarshal(raw, &doc))
			require.NoError(t, doc.Validate())
			assert.Equal(t, summary.ID, doc.ID)
			assert.Equal(t, "Landing page", doc.Name)
			assert.NotEmpty(t, doc.Pages)
		})
	}

	_, err := NewService(newMemoryDocuments()).Create(ctx, "x", "poster", "user_1")
	assert.Error(t, err)
}

func TestAccessIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	s := NewService(newMemoryDocuments())

	summary, err := s.Create(ctx, "Mine", "", "user_1")
	require.NoError(t, err)

	_, err = s.Get(ctx, summary.ID, "user_2")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, s.CanEdit(ctx, summary.ID, "user_2"), ErrForbidden)
	assert.ErrorIs(t, s.Delete(ctx, summary.ID, "user_2"), ErrForbidden)

	_, err = s.Get(ctx, "doc_missing", "user_1")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx, "user_2")
	require.NoError(t, err)
	assert.Empty(t, list)

	var deleted []string
	s.OnDelete(func(id string) { deleted = append(deleted, id) })
	require.NoError(t, s.Delete(ctx, summary.ID, "user_1"))
	assert.Equal(t, []string{summary.ID}, deleted)
	_, err = s.LatestSnapshot(ctx, summary.ID, "user_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	h := NewHandler(NewService(newMemoryDocuments()), zap.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/api/documents", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/documents/{documentId}", h.Get).Methods(http.MethodGet)

	serve := func(method, path, body, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodPost, "/api/documents", `{"name":""}`, "user_1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodPost, "/api/documents", `{"name":"Deck","template":"poster"}`, "user_1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodPost, "/api/documents", `{"name":"Deck","template":"sample"}`, "user_1")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = serve(http.MethodGet, "/api/documents/"+created.ID, "", "user_1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(http.MethodGet, "/api/documents/"+created.ID, "", "user_2")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(http.MethodGet, "/api/documents/doc_missing", "", "user_1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

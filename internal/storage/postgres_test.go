package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorforge/canvas/internal/typeid"
)

func TestWrapMapsDriverErrors(t *testing.T) {
	err := wrap("get user", pgx.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "get user: not found")

	err = wrap("create user", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, ErrDuplicate)

	other := errors.New("connection reset")
	err = wrap("create user", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// Runs against a real database when CANVAS_TEST_DATABASE_URL is set.
func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("CANVAS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CANVAS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	user, err := db.CreateUser(ctx, User{
		ID:          typeid.NewUserID(),
		Email:       typeid.NewUserID() + "@example.com",
		Password:    "hash",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, User{ID: typeid.NewUserID(), Email: user.Email, Password: "x", DisplayName: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	doc, err := db.CreateDocument(ctx,
		Document{ID: typeid.NewDocumentID(), Name: "Landing", OwnerID: user.ID},
		Snapshot{ID: typeid.NewSnapshotID(), Version: 1, Document: json.RawMessage(`{"v":1}`)})
	require.NoError(t, err)

	snap, err := db.SaveSnapshot(ctx, typeid.NewSnapshotID(), doc.ID, json.RawMessage(`{"v":2}`))
	require.NoError(t, err)
	assert.Equal(t, int32(2), snap.Version)

	latest, err := db.GetLatestSnapshot(ctx, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(latest.Document))

	docs, err := db.ListDocumentsForOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, db.DeleteDocument(ctx, doc.ID))
	_, err = db.GetLatestSnapshot(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteDocument(ctx, doc.ID), ErrNotFound)
}

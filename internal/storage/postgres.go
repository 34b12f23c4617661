package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	password     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (owner_id);

CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	version     INTEGER NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (document_id, version)
);
`

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Document struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Snapshot struct {
	ID         string
	DocumentID string
	Version    int32
	Document   json.RawMessage
	CreatedAt  time.Time
}

type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, u User) (User, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password, display_name, created_at`,
		u.ID, u.Email, u.Password, u.DisplayName)
	created, err := scanUser(row)
	if err != nil {
		return User{}, wrap("create user", err)
	}
	return created, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return User{}, wrap("get user by email", err)
	}
	return u, nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return User{}, wrap("get user", err)
	}
	return u, nil
}

// CreateDocument inserts the document row and its first snapshot in one transaction.
func (p *Postgres) CreateDocument(ctx context.Context, d Document, first Snapshot) (Document, error) {
	var created Document
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO documents (id, name, owner_id)
			 VALUES ($1, $2, $3)
			 RETURNING id, name, owner_id, created_at, updated_at`,
			d.ID, d.Name, d.OwnerID)
		var err error
		if created, err = scanDocument(row); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO snapshots (id, document_id, version, document) VALUES ($1, $2, $3, $4)`,
			first.ID, created.ID, first.Version, first.Document)
		return err
	})
	if err != nil {
		return Document{}, wrap("create document", err)
	}
	return created, nil
}

func (p *Postgres) GetDocument(ctx context.Context, id string) (Document, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if err != nil {
		return Document{}, wrap("get document", err)
	}
	return d, nil
}

func (p *Postgres) ListDocumentsForOwner(ctx context.Context, ownerID string) ([]Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, owner_id, created_at, updated_at
		 FROM documents WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		return scanDocument(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (p *Postgres) DeleteDocument(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSnapshot appends a snapshot with the next version number and bumps the
// document's updated_at.
func (p *Postgres) SaveSnapshot(ctx context.Context, id, documentID string, doc json.RawMessage) (Snapshot, error) {
	var snap Snapshot
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO snapshots (id, document_id, version, document)
			 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3 FROM snapshots WHERE document_id = $2
			 RETURNING id, document_id, version, document, created_at`,
			id, documentID, doc)
		var err error
		if snap, err = scanSnapshot(row); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE documents SET updated_at = now() WHERE id = $1`, documentID)
		return err
	})
	if err != nil {
		return Snapshot{}, wrap("save snapshot", err)
	}
	return snap, nil
}

func (p *Postgres) GetLatestSnapshot(ctx context.Context, documentID string) (Snapshot, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, document_id, version, document, created_at
		 FROM snapshots WHERE document_id = $1 ORDER BY version DESC LIMIT 1`, documentID)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, wrap("get latest snapshot", err)
	}
	return snap, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Name, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.DocumentID, &s.Version, &s.Document, &s.CreatedAt)
	return s, err
}

// wrap maps driver errors onto the package sentinels.
func wrap(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if isDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

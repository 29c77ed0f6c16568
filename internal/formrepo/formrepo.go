// Package formrepo is the reference saved-form repository: a small SQLite
// store mapping form names to their serialized envelopes. It backs the
// engine's form loader contract for template components and the HTTP API's
// form CRUD; hosts with their own storage implement runtime.Loader
// themselves instead.
package formrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/runtime"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no saved form carries the requested name.
var ErrNotFound = errors.New("form not found")

// Repo is a SQLite-backed form repository.
type Repo struct {
	db *sql.DB
}

// Open opens (and migrates) the repository at the given database path. Use
// ":memory:" for an ephemeral repository.
func Open(ctx context.Context, path string) (*Repo, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open form database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS forms (
			name       TEXT PRIMARY KEY,
			envelope   TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate form database: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Form repository opened.", "path", path)
	return &Repo{db: db}, nil
}

// Close releases the database handle.
func (r *Repo) Close() error { return r.db.Close() }

// Save upserts a form envelope under the given name.
func (r *Repo) Save(ctx context.Context, name string, env *formstore.Envelope) error {
	raw, err := env.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode form %q: %w", name, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO forms (name, envelope, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET envelope = excluded.envelope, updated_at = excluded.updated_at
	`, name, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save form %q: %w", name, err)
	}
	return nil
}

// Get loads a form envelope by name.
func (r *Repo) Get(ctx context.Context, name string) (*formstore.Envelope, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT envelope FROM forms WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load form %q: %w", name, err)
	}
	return formstore.ParseEnvelope(ctx, []byte(raw))
}

// List returns the saved form names in lexical order.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM forms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a saved form. Deleting an absent form returns ErrNotFound.
func (r *Repo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete form %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Loader adapts the repository to the engine's form loader contract.
func (r *Repo) Loader() runtime.Loader {
	return func(ctx context.Context, name string) (*formstore.Envelope, error) {
		return r.Get(ctx, name)
	}
}

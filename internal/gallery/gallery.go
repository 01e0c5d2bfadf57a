// Package gallery stores generated artifacts on disk with a SQLite index.
//
// Each artifact is a rendered diagram or generated image plus its metadata
// (engine, format, spec or prompt). Files live under the gallery root; rows
// in gallery.db make them listable and addressable by ID.
package gallery

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	archsketch "github.com/archsketch/archsketch"
)

// ErrNotFound is returned when an artifact ID does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store is a gallery backed by a directory and a SQLite index.
type Store struct {
	dir string
	db  *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	engine       TEXT NOT NULL,
	format       TEXT NOT NULL,
	content_type TEXT NOT NULL,
	path         TEXT NOT NULL,
	spec_json    TEXT,
	prompt       TEXT,
	description  TEXT,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at DESC);
`

// Open opens (creating if needed) a gallery rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating gallery directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "gallery.db"))
	if err != nil {
		return nil, fmt.Errorf("opening gallery index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configuring gallery index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing gallery schema: %w", err)
	}

	return &Store{dir: dir, db: db}, nil
}

// Close releases the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the gallery root directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveInput describes an artifact to store.
type SaveInput struct {
	Title       string
	Engine      archsketch.Engine
	Format      string
	ContentType string
	Data        []byte
	SpecJSON    json.RawMessage
	Prompt      string
	Description string
}

// Save writes the artifact file and inserts its index row.
func (s *Store) Save(in SaveInput) (*archsketch.Artifact, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("artifact data is empty")
	}
	if in.Format == "" {
		return nil, fmt.Errorf("artifact format is required")
	}

	id := uuid.NewString()
	name := id + "." + in.Format
	if err := os.WriteFile(filepath.Join(s.dir, name), in.Data, 0o644); err != nil {
		return nil, fmt.Errorf("writing artifact file: %w", err)
	}

	art := &archsketch.Artifact{
		ID:          id,
		Title:       in.Title,
		Engine:      in.Engine,
		Format:      in.Format,
		ContentType: in.ContentType,
		Path:        name,
		SpecJSON:    in.SpecJSON,
		Prompt:      in.Prompt,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO artifacts (id, title, engine, format, content_type, path, spec_json, prompt, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		art.ID, art.Title, string(art.Engine), art.Format, art.ContentType,
		art.Path, string(art.SpecJSON), art.Prompt, art.Description, art.CreatedAt,
	)
	if err != nil {
		// Keep file and index consistent on failure.
		_ = os.Remove(filepath.Join(s.dir, name))
		return nil, fmt.Errorf("indexing artifact: %w", err)
	}

	return art, nil
}

// Get returns the artifact metadata for an ID.
func (s *Store) Get(id string) (*archsketch.Artifact, error) {
	row := s.db.QueryRow(
		`SELECT id, title, engine, format, content_type, path, spec_json, prompt, description, created_at
		 FROM artifacts WHERE id = ?`, id)
	return scanArtifact(row)
}

// Data returns the artifact's file contents.
func (s *Store) Data(id string) ([]byte, *archsketch.Artifact, error) {
	art, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, art.Path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("reading artifact file: %w", err)
	}
	return data, art, nil
}

// List returns all artifacts, newest first.
func (s *Store) List() ([]archsketch.Artifact, error) {
	rows, err := s.db.Query(
		`SELECT id, title, engine, format, content_type, path, spec_json, prompt, description, created_at
		 FROM artifacts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []archsketch.Artifact
	for rows.Next() {
		art, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *art)
	}
	return artifacts, rows.Err()
}

// Delete removes one artifact and its file.
func (s *Store) Delete(id string) error {
	art, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM artifacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	if err := os.Remove(filepath.Join(s.dir, art.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing artifact file: %w", err)
	}
	return nil
}

// Clear removes all artifacts and their files.
func (s *Store) Clear() error {
	artifacts, err := s.List()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM artifacts`); err != nil {
		return fmt.Errorf("clearing artifacts: %w", err)
	}
	for _, art := range artifacts {
		if err := os.Remove(filepath.Join(s.dir, art.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing artifact file: %w", err)
		}
	}
	return nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*archsketch.Artifact, error) {
	var art archsketch.Artifact
	var engine, specJSON string
	err := row.Scan(&art.ID, &art.Title, &engine, &art.Format, &art.ContentType,
		&art.Path, &specJSON, &art.Prompt, &art.Description, &art.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning artifact: %w", err)
	}
	art.Engine = archsketch.Engine(engine)
	if specJSON != "" {
		art.SpecJSON = json.RawMessage(specJSON)
	}
	return &art, nil
}

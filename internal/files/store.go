// Package files is the host's file catalog: the metadata previews and the
// viewer-redirect endpoint look files up by.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jyoonje/collabview-plugin/internal/db"
	"github.com/jyoonje/collabview-plugin/internal/host"
)

// ErrNotFound is returned when no file has the requested id.
var ErrNotFound = errors.New("file not found")

// File is a catalogued file.
type File struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"create_at"`
}

// Info returns the subset of f handed to preview overrides.
func (f File) Info() host.FileInfo {
	return host.FileInfo{ID: f.ID, Name: f.Name, Extension: f.Extension}
}

// Store provides CRUD operations for the file catalog.
type Store struct {
	db *db.DB
}

// NewStore creates a new file store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts f, filling in the id, extension and creation time when
// they are empty.
func (s *Store) Create(ctx context.Context, f *File) error {
	if f.Name == "" {
		return fmt.Errorf("creating file: name is required")
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Extension == "" {
		f.Extension = strings.TrimPrefix(path.Ext(f.Name), ".")
	}
	f.Extension = strings.ToLower(f.Extension)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, name, extension, path, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Extension, f.Path, f.Size, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	return nil
}

// Get returns the file with the given id.
func (s *Store) Get(ctx context.Context, id string) (*File, error) {
	f := &File{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, extension, path, size, created_at FROM files WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.Extension, &f.Path, &f.Size, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}
	return f, nil
}

// GetByPath returns the file catalogued at p.
func (s *Store) GetByPath(ctx context.Context, p string) (*File, error) {
	f := &File{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, extension, path, size, created_at FROM files WHERE path = ?`, p,
	).Scan(&f.ID, &f.Name, &f.Extension, &f.Path, &f.Size, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting file by path: %w", err)
	}
	return f, nil
}

// List returns catalogued files, newest first. A limit of 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]File, error) {
	query := `SELECT id, name, extension, path, size, created_at FROM files ORDER BY created_at DESC, name`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Name, &f.Extension, &f.Path, &f.Size, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a file from the catalog.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FileInfo implements host.FileSource.
func (s *Store) FileInfo(ctx context.Context, id string) (host.FileInfo, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return host.FileInfo{}, err
	}
	return f.Info(), nil
}

package redirect

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jyoonje/collabview-plugin/internal/db"
)

// Link is one viewer URL issued to a user.
type Link struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Authority string    `json:"authority"`
	FinalURL  string    `json:"final_url"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkStore keeps the history of issued viewer URLs.
type LinkStore struct {
	db *db.DB
}

// NewLinkStore creates a LinkStore.
func NewLinkStore(d *db.DB) *LinkStore {
	return &LinkStore{db: d}
}

// Record stores l, assigning its id and timestamp.
func (s *LinkStore) Record(ctx context.Context, l *Link) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO viewer_links (id, file_id, user_id, user_name, authority, final_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.FileID, l.UserID, l.UserName, l.Authority, l.FinalURL, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording viewer link: %w", err)
	}
	return nil
}

// List returns issued links, newest first, optionally for one file.
func (s *LinkStore) List(ctx context.Context, fileID string, limit int) ([]Link, error) {
	query := `SELECT id, file_id, user_id, user_name, authority, final_url, created_at FROM viewer_links`
	var args []any
	if fileID != "" {
		query += ` WHERE file_id = ?`
		args = append(args, fileID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing viewer links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.FileID, &l.UserID, &l.UserName, &l.Authority, &l.FinalURL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning viewer link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func handleListLinks(store *LinkStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		links, err := store.List(r.Context(), r.URL.Query().Get("file_id"), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if links == nil {
			links = []Link{}
		}
		writeJSON(w, http.StatusOK, links)
	}
}

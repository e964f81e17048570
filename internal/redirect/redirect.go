// Package redirect serves the viewer-redirect endpoint: it builds the
// external viewer URL for a catalogued file and registers it with the
// viewer server.
package redirect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jyoonje/collabview-plugin/internal/files"
)

// DefaultFileDir is where converted documents live under the viewer root.
const DefaultFileDir = "public/OUT/destFile"

// UserIDHeader must be present on every request.
const UserIDHeader = "X-User-ID"

// FileLookup returns catalogued files by id.
type FileLookup interface {
	Get(ctx context.Context, id string) (*files.File, error)
}

// Options configures a Handler.
type Options struct {
	CollabviewURL string
	DisposableKey string
	FileDir       string
	Files         FileLookup
	Links         *LinkStore
	HTTPClient    *http.Client
	Logger        *slog.Logger
	Now           func() time.Time
}

// Handler serves GET /api/v1/viewer-redirect.
type Handler struct {
	base    string
	key     string
	fileDir string
	files   FileLookup
	links   *LinkStore
	client  *http.Client
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Handler.
func New(opts Options) (*Handler, error) {
	if opts.Files == nil {
		return nil, fmt.Errorf("creating redirect handler: file lookup is required")
	}
	h := &Handler{
		base:    strings.TrimRight(opts.CollabviewURL, "/"),
		key:     opts.DisposableKey,
		fileDir: opts.FileDir,
		files:   opts.Files,
		links:   opts.Links,
		client:  opts.HTTPClient,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if h.fileDir == "" {
		h.fileDir = DefaultFileDir
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: 10 * time.Second}
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h, nil
}

// RegisterRoutes mounts the redirect endpoint and the link history behind
// RequireUser.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/api/v1/viewer-redirect", h.handleRedirect)
		if h.links != nil {
			r.Get("/api/v1/viewer-links", handleListLinks(h.links))
		}
	})
}

// RequireUser rejects requests without an acting user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(UserIDHeader) == "" {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EsobName swaps the extension of name for .esob, the converted format the
// viewer reads.
func EsobName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".esob"
}

// BuildViewerURL returns the viewer page URL for a converted file. relPath is
// relative to the viewer root; a leading "public/" is dropped since that
// directory is served at the web root.
func BuildViewerURL(base, relPath, userName, key, fileID string, at time.Time) string {
	u := fmt.Sprintf(
		"%s/web/viewer.html?file=/%s&user_name=%s&disposable_key=%s&object_ID=%s&insert_dt=%s",
		strings.TrimRight(base, "/"),
		strings.TrimPrefix(relPath, "public/"),
		url.QueryEscape(userName),
		key,
		url.QueryEscape(fileID),
		at.Format("06.01.02"),
	)
	return strings.ReplaceAll(u, "+", "%2B")
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fileID := q.Get("file_id")
	if fileID == "" {
		http.Error(w, "file_id is required", http.StatusBadRequest)
		return
	}
	userID, userName, authority := q.Get("user_id"), q.Get("user_name"), q.Get("authority")
	if userID == "" || userName == "" || authority == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	f, err := h.files.Get(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		h.log.Error("looking up file", slog.String("file_id", fileID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if h.base == "" {
		http.Error(w, "collabview url not set", http.StatusInternalServerError)
		return
	}
	if h.key == "" {
		h.log.Error("disposable key not configured")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	relPath := path.Join(h.fileDir, EsobName(f.Name))
	finalURL := BuildViewerURL(h.base, relPath, userName, h.key, fileID, h.now())

	if err := h.register(r.Context(), fileID, finalURL); err != nil {
		h.log.Error("registering viewer url", slog.String("file_id", fileID), slog.Any("error", err))
		http.Error(w, "failed to contact viewer server", http.StatusBadGateway)
		return
	}

	if h.links != nil {
		link := &Link{FileID: fileID, UserID: userID, UserName: userName, Authority: authority, FinalURL: finalURL}
		if err := h.links.Record(r.Context(), link); err != nil {
			h.log.Warn("recording viewer link", slog.Any("error", err))
		}
	}

	h.log.Info("viewer url issued", slog.String("file_id", fileID), slog.String("user_id", userID))

	if q.Get("redirect") == "true" {
		http.Redirect(w, r, finalURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"finalURL": finalURL})
}

// register POSTs the issued URL to the viewer server's cv_post endpoint. A
// non-2xx answer is logged but does not fail the request.
func (h *Handler) register(ctx context.Context, fileID, finalURL string) error {
	payload, err := json.Marshal(map[string]string{
		"objectID": fileID,
		"finalURL": finalURL,
	})
	if err != nil {
		return fmt.Errorf("encoding cv_post body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/cv_post", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating cv_post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending cv_post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		h.log.Warn("cv_post answered non-success", slog.Int("status", resp.StatusCode))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

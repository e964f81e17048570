package host

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Headers carrying the acting user on host requests.
const (
	UserIDHeader   = "X-User-ID"
	UserNameHeader = "X-User-Name"
)

// FileSource looks up file metadata by id.
type FileSource interface {
	FileInfo(ctx context.Context, id string) (FileInfo, error)
}

// previewWaitTimeout bounds ?wait=true on preview mounts.
const previewWaitTimeout = 15 * time.Second

type previewResponse struct {
	PreviewID string `json:"preview_id,omitempty"`
	FileID    string `json:"file_id"`
	Override  bool   `json:"override"`
	State     string `json:"state,omitempty"`
	HTML      string `json:"html,omitempty"`
}

// RegisterRoutes mounts the host's preview and panel endpoints.
func RegisterRoutes(r chi.Router, reg *Registry, files FileSource) {
	r.Post("/api/v1/files/{id}/preview", handleMountPreview(reg, files))
	r.Get("/api/v1/previews/{id}", handleGetPreview(reg))
	r.Delete("/api/v1/previews/{id}", handleUnmountPreview(reg))
	r.Post("/api/v1/session/identity", handleSetIdentity(reg))
	r.Get("/panel/{slot}", handleRenderPanel(reg))
}

// IdentityFromRequest reads the acting user from request headers. It returns
// nil when no user id is present.
func IdentityFromRequest(r *http.Request) *Identity {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		return nil
	}
	return &Identity{ID: id, Name: strings.TrimSpace(r.Header.Get(UserNameHeader))}
}

func handleMountPreview(reg *Registry, files FileSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID := chi.URLParam(r, "id")

		file, err := files.FileInfo(r.Context(), fileID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}

		mp, ok := reg.Mount(file, IdentityFromRequest(r))
		if !ok {
			writeJSON(w, http.StatusOK, previewResponse{FileID: file.ID, Override: false})
			return
		}

		if r.URL.Query().Get("wait") == "true" {
			if wt, ok := mp.Component.(Waiter); ok {
				ctx, cancel := context.WithTimeout(r.Context(), previewWaitTimeout)
				err := wt.Wait(ctx)
				cancel()
				if err != nil {
					writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error(), "preview_id": mp.ID})
					return
				}
			}
		}

		writeJSON(w, http.StatusCreated, previewResponse{
			PreviewID: mp.ID,
			FileID:    file.ID,
			Override:  true,
			State:     mp.Component.State(),
			HTML:      mp.Component.Render(),
		})
	}
}

func handleGetPreview(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mp, err := reg.Preview(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, previewResponse{
			PreviewID: mp.ID,
			FileID:    mp.File.ID,
			Override:  true,
			State:     mp.Component.State(),
			HTML:      mp.Component.Render(),
		})
	}
}

func handleUnmountPreview(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reg.Unmount(chi.URLParam(r, "id")); err != nil {
			if errors.Is(err, ErrPreviewNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSetIdentity(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromRequest(r)
		if identity == nil {
			http.Error(w, "missing "+UserIDHeader, http.StatusBadRequest)
			return
		}
		n := reg.SetIdentity(identity)
		writeJSON(w, http.StatusOK, map[string]int{"updated": n})
	}
}

func handleRenderPanel(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component, _, ok := reg.Panel(chi.URLParam(r, "slot"))
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := component.Render(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package render

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// VisibilitySource reports whether a slot is currently shown.
type VisibilitySource interface {
	Active() (string, bool)
}

// PageOptions configures the standalone viewer page.
type PageOptions struct {
	Title string
	Slot  string
	Panel VisibilitySource
}

type viewerResponse struct {
	Frame  *Frame `json:"frame"`
	Mounts int    `json:"mounts"`
}

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// RegisterRoutes mounts the viewer frame API and the standalone page.
func (r *Renderer) RegisterRoutes(router chi.Router, opts PageOptions) {
	router.Get("/api/v1/viewer", r.handleFrame)
	router.Get("/viewer", r.handlePage(opts))
}

func (r *Renderer) handleFrame(w http.ResponseWriter, _ *http.Request) {
	resp := viewerResponse{Mounts: r.Mounts()}
	if f, ok := r.Frame(); ok {
		resp.Frame = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

func (r *Renderer) handlePage(opts PageOptions) http.HandlerFunc {
	if opts.Title == "" {
		opts.Title = "CollabView"
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var panel bytes.Buffer
		if err := r.Render(&panel); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		open := false
		if opts.Panel != nil {
			active, ok := opts.Panel.Active()
			open = ok && active == opts.Slot
		}

		data := struct {
			Title string
			Slot  string
			Open  bool
			Panel template.HTML
		}{
			Title: opts.Title,
			Slot:  opts.Slot,
			Open:  open,
			Panel: template.HTML(panel.String()),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, data); err != nil {
			r.log.Error("rendering viewer page", slog.Any("error", err))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

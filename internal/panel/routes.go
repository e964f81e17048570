package panel

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type visibilityResponse struct {
	ActiveSlotID string `json:"activeSlotId"`
	Open         bool   `json:"open"`
}

// RegisterRoutes mounts panel visibility endpoints under /api/v1/panel.
// Requests without a ?slot= parameter act on defaultSlot.
func RegisterRoutes(r chi.Router, c *Controller, defaultSlot string) {
	slotOf := func(r *http.Request) string {
		if s := r.URL.Query().Get("slot"); s != "" {
			return s
		}
		return defaultSlot
	}

	r.Route("/api/v1/panel", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, response(c, slotOf(r)))
		})
		r.Post("/toggle", func(w http.ResponseWriter, r *http.Request) {
			slot := slotOf(r)
			c.Toggle(slot)
			writeJSON(w, http.StatusOK, response(c, slot))
		})
		r.Post("/open", func(w http.ResponseWriter, r *http.Request) {
			slot := slotOf(r)
			c.EnsureOpen(slot)
			writeJSON(w, http.StatusOK, response(c, slot))
		})
		r.Post("/close", func(w http.ResponseWriter, r *http.Request) {
			slot := slotOf(r)
			c.Close(slot)
			writeJSON(w, http.StatusOK, response(c, slot))
		})
	})
}

func response(c *Controller, slot string) visibilityResponse {
	v := c.Visibility()
	return visibilityResponse{ActiveSlotID: v.ActiveSlotID, Open: slot != "" && v.ActiveSlotID == slot}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrPreviewNotFound is returned when a mounted preview id is unknown.
var ErrPreviewNotFound = errors.New("preview not found")

// FileInfo is the file metadata the host hands to preview overrides.
type FileInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// Identity is the acting user. A nil *Identity means the session has not
// resolved its user yet.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"username"`
}

// PreviewPredicate decides whether an override replaces the native preview.
type PreviewPredicate func(FileInfo) bool

// PreviewComponent is a mounted file-preview override. The host calls Update
// on every re-render and Unmount exactly once.
type PreviewComponent interface {
	Update(file FileInfo, identity *Identity)
	Unmount()
	Render() string
	State() string
}

// Waiter is implemented by preview components whose work settles
// asynchronously.
type Waiter interface {
	Wait(ctx context.Context) error
}

// PreviewFactory mounts a new preview component.
type PreviewFactory func(file FileInfo, identity *Identity) PreviewComponent

// PanelComponent renders the content of a side-panel slot.
type PanelComponent interface {
	Render(w io.Writer) error
}

// PanelHandle identifies a registered side-panel slot.
type PanelHandle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type previewOverride struct {
	predicate PreviewPredicate
	factory   PreviewFactory
}

type panelEntry struct {
	handle    PanelHandle
	component PanelComponent
}

// MountedPreview is a live preview instance tracked by the registry.
type MountedPreview struct {
	ID        string
	File      FileInfo
	Identity  *Identity
	Component PreviewComponent
}

// Registry is the plugin-facing registration surface of the host: side-panel
// slots and file-preview overrides. It also tracks mounted previews so the
// host can re-render and unmount them.
type Registry struct {
	mu        sync.RWMutex
	panels    map[string]panelEntry
	overrides []previewOverride
	mounted   map[string]*MountedPreview

	log *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		panels:  make(map[string]panelEntry),
		mounted: make(map[string]*MountedPreview),
		log:     log,
	}
}

// RegisterPanel registers component as the content of the slot id.
func (r *Registry) RegisterPanel(id, title string, component PanelComponent) (PanelHandle, error) {
	if id == "" || component == nil {
		return PanelHandle{}, fmt.Errorf("registering panel: id and component are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.panels[id]; ok {
		return PanelHandle{}, fmt.Errorf("registering panel: slot %q already registered", id)
	}
	h := PanelHandle{ID: id, Title: title}
	r.panels[id] = panelEntry{handle: h, component: component}
	return h, nil
}

// Panel returns the component registered for slot id.
func (r *Registry) Panel(id string) (PanelComponent, PanelHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.panels[id]
	return e.component, e.handle, ok
}

// Panels lists registered slots.
func (r *Registry) Panels() []PanelHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PanelHandle, 0, len(r.panels))
	for _, e := range r.panels {
		out = append(out, e.handle)
	}
	return out
}

// RegisterFilePreview adds an override for native file previews. Overrides
// are consulted in registration order; the first matching predicate wins.
func (r *Registry) RegisterFilePreview(predicate PreviewPredicate, factory PreviewFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = append(r.overrides, previewOverride{predicate: predicate, factory: factory})
}

// Mount renders a preview for file. It returns false when no override claims
// the file, in which case the host falls back to its native preview.
func (r *Registry) Mount(file FileInfo, identity *Identity) (*MountedPreview, bool) {
	r.mu.RLock()
	var factory PreviewFactory
	for _, o := range r.overrides {
		if o.predicate == nil || o.predicate(file) {
			factory = o.factory
			break
		}
	}
	r.mu.RUnlock()

	if factory == nil {
		return nil, false
	}

	mp := &MountedPreview{
		ID:        uuid.New().String(),
		File:      file,
		Identity:  identity,
		Component: factory(file, identity),
	}

	r.mu.Lock()
	r.mounted[mp.ID] = mp
	r.mu.Unlock()

	r.log.Debug("preview mounted", slog.String("preview_id", mp.ID), slog.String("file_id", file.ID))
	return mp, true
}

// Preview returns a mounted preview by id.
func (r *Registry) Preview(id string) (*MountedPreview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mp, ok := r.mounted[id]
	if !ok {
		return nil, ErrPreviewNotFound
	}
	return mp, nil
}

// Unmount removes a mounted preview and unmounts its component.
func (r *Registry) Unmount(id string) error {
	r.mu.Lock()
	mp, ok := r.mounted[id]
	delete(r.mounted, id)
	r.mu.Unlock()

	if !ok {
		return ErrPreviewNotFound
	}
	mp.Component.Unmount()
	r.log.Debug("preview unmounted", slog.String("preview_id", id))
	return nil
}

// SetIdentity re-renders every mounted preview with the session's resolved
// identity. Previews that were waiting for a user resume from there.
func (r *Registry) SetIdentity(identity *Identity) int {
	r.mu.Lock()
	previews := make([]*MountedPreview, 0, len(r.mounted))
	for _, mp := range r.mounted {
		mp.Identity = identity
		previews = append(previews, mp)
	}
	r.mu.Unlock()

	for _, mp := range previews {
		mp.Component.Update(mp.File, identity)
	}
	return len(previews)
}

// UnmountAll unmounts every preview, used at shutdown.
func (r *Registry) UnmountAll() {
	r.mu.Lock()
	previews := r.mounted
	r.mounted = make(map[string]*MountedPreview)
	r.mu.Unlock()

	for _, mp := range previews {
		mp.Component.Unmount()
	}
}

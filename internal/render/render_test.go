package render

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jyoonje/collabview-plugin/internal/host"
	"github.com/jyoonje/collabview-plugin/internal/viewer"
)

func newRenderer(t *testing.T) (*Renderer, *viewer.Store) {
	t.Helper()
	vs, err := viewer.NewStore(host.NewStore(nil))
	require.NoError(t, err)
	r, err := New(vs, Options{})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, vs
}

func render(t *testing.T, r *Renderer) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	return buf.String()
}

func TestEmptyState(t *testing.T) {
	r, _ := newRenderer(t)

	out := render(t, r)
	assert.Contains(t, out, "<strong>No viewer URL to load.</strong>")
	assert.Contains(t, out, "collabview-empty")
	assert.NotContains(t, out, "<iframe")
	_, ok := r.Frame()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Mounts())
}

func TestCustomEmptyMessage(t *testing.T) {
	vs, err := viewer.NewStore(host.NewStore(nil))
	require.NoError(t, err)
	r, err := New(vs, Options{EmptyMessage: "Nothing *yet*"})
	require.NoError(t, err)
	defer r.Close()

	assert.Contains(t, render(t, r), "Nothing <em>yet</em>")
}

func TestFrameKeyedOnToken(t *testing.T) {
	r, vs := newRenderer(t)

	vs.Publish("https://viewer/x")
	out := render(t, r)
	assert.Contains(t, out, `id="collabview-frame-1"`)
	assert.Contains(t, out, `data-reload-key="1"`)
	assert.Contains(t, out, `src="https://viewer/x"`)
}

func TestSameURLRemounts(t *testing.T) {
	r, vs := newRenderer(t)

	vs.Publish("https://viewer/x")
	first, ok := r.Frame()
	require.True(t, ok)

	vs.Publish("https://viewer/x")
	second, ok := r.Frame()
	require.True(t, ok)

	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, uint64(2), second.Token)
	assert.NotEqual(t, first.InstanceID, second.InstanceID)
	assert.Equal(t, 2, r.Mounts())
}

func TestUnsafeURLIsNeutralised(t *testing.T) {
	r, vs := newRenderer(t)

	vs.Publish("javascript:alert(1)")
	out := render(t, r)
	assert.False(t, strings.Contains(out, "javascript:alert"))
}

func TestStartsFromExistingState(t *testing.T) {
	vs, err := viewer.NewStore(host.NewStore(nil))
	require.NoError(t, err)
	vs.Publish("https://viewer/early")

	r, err := New(vs, Options{})
	require.NoError(t, err)
	defer r.Close()

	f, ok := r.Frame()
	require.True(t, ok)
	assert.Equal(t, uint64(1), f.Token)
}

type fixedPanel struct{ slot string }

func (p fixedPanel) Active() (string, bool) { return p.slot, p.slot != "" }

func TestRoutes(t *testing.T) {
	r, vs := newRenderer(t)
	router := chi.NewRouter()
	r.RegisterRoutes(router, PageOptions{Slot: "viewer", Panel: fixedPanel{slot: "viewer"}})

	vs.Publish("https://viewer/x")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/viewer", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp viewerResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Frame)
	assert.Equal(t, uint64(1), resp.Frame.Token)
	assert.Equal(t, 1, resp.Mounts)

	req = httptest.NewRequest(http.MethodGet, "/viewer", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="collabview-frame-1"`)
	assert.Contains(t, body, "/ws/panel")
	assert.NotContains(t, body, `hidden>`)
}

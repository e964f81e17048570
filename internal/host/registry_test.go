package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakePreview struct {
	mu        sync.Mutex
	updates   []*Identity
	unmounted int
}

func (f *fakePreview) Update(_ FileInfo, identity *Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, identity)
}

func (f *fakePreview) Unmount() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unmounted++
}

func (f *fakePreview) Render() string { return "<div>fake</div>" }
func (f *fakePreview) State() string  { return "applied" }

type staticPanel string

func (p staticPanel) Render(w io.Writer) error {
	_, err := io.WriteString(w, string(p))
	return err
}

func pdfOnly(f FileInfo) bool { return f.Extension == "pdf" }

func TestRegisterPanel(t *testing.T) {
	r := NewRegistry(nil)
	h, err := r.RegisterPanel("viewer", "CollabView", staticPanel("x"))
	if err != nil {
		t.Fatalf("RegisterPanel: %v", err)
	}
	if h.ID != "viewer" || h.Title != "CollabView" {
		t.Errorf("unexpected handle %+v", h)
	}
	if _, err := r.RegisterPanel("viewer", "again", staticPanel("y")); err == nil {
		t.Error("expected duplicate slot error")
	}
	if _, err := r.RegisterPanel("", "t", staticPanel("y")); err == nil {
		t.Error("expected error for empty id")
	}
	if got := r.Panels(); len(got) != 1 {
		t.Errorf("Panels() = %v, want one", got)
	}
}

func TestMountFallsBackWhenNoOverride(t *testing.T) {
	r := NewRegistry(nil)
	r.RegisterFilePreview(pdfOnly, func(FileInfo, *Identity) PreviewComponent { return &fakePreview{} })

	if _, ok := r.Mount(FileInfo{ID: "1", Name: "a.exe", Extension: "exe"}, nil); ok {
		t.Error("expected native preview for exe")
	}
	mp, ok := r.Mount(FileInfo{ID: "2", Name: "a.pdf", Extension: "pdf"}, nil)
	if !ok {
		t.Fatal("expected override for pdf")
	}
	if got, err := r.Preview(mp.ID); err != nil || got != mp {
		t.Errorf("Preview(%s) = %v, %v", mp.ID, got, err)
	}
}

func TestSetIdentityUpdatesMounted(t *testing.T) {
	r := NewRegistry(nil)
	fp := &fakePreview{}
	r.RegisterFilePreview(nil, func(FileInfo, *Identity) PreviewComponent { return fp })
	r.Mount(FileInfo{ID: "1", Extension: "pdf"}, nil)

	id := &Identity{ID: "u1", Name: "alice"}
	if n := r.SetIdentity(id); n != 1 {
		t.Errorf("SetIdentity updated %d previews, want 1", n)
	}
	if len(fp.updates) != 1 || fp.updates[0] != id {
		t.Errorf("unexpected updates %v", fp.updates)
	}
}

func TestUnmount(t *testing.T) {
	r := NewRegistry(nil)
	fp := &fakePreview{}
	r.RegisterFilePreview(nil, func(FileInfo, *Identity) PreviewComponent { return fp })
	mp, _ := r.Mount(FileInfo{ID: "1"}, nil)

	if err := r.Unmount(mp.ID); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if err := r.Unmount(mp.ID); !errors.Is(err, ErrPreviewNotFound) {
		t.Errorf("second Unmount = %v, want ErrPreviewNotFound", err)
	}
	if fp.unmounted != 1 {
		t.Errorf("component unmounted %d times, want 1", fp.unmounted)
	}

	r.Mount(FileInfo{ID: "2"}, nil)
	r.Mount(FileInfo{ID: "3"}, nil)
	r.UnmountAll()
	if fp.unmounted != 3 {
		t.Errorf("after UnmountAll unmounted = %d, want 3", fp.unmounted)
	}
}

type files map[string]FileInfo

func (f files) FileInfo(_ context.Context, id string) (FileInfo, error) {
	fi, ok := f[id]
	if !ok {
		return FileInfo{}, errors.New("no such file")
	}
	return fi, nil
}

func TestRoutes(t *testing.T) {
	reg := NewRegistry(nil)
	fp := &fakePreview{}
	reg.RegisterFilePreview(pdfOnly, func(FileInfo, *Identity) PreviewComponent { return fp })
	reg.RegisterPanel("viewer", "CollabView", staticPanel("<p>panel</p>"))

	r := chi.NewRouter()
	RegisterRoutes(r, reg, files{
		"42": {ID: "42", Name: "report.pdf", Extension: "pdf"},
		"7":  {ID: "7", Name: "setup.exe", Extension: "exe"},
	})

	do := func(method, target string, user bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if user {
			req.Header.Set(UserIDHeader, "u1")
			req.Header.Set(UserNameHeader, "alice")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/v1/files/42/preview", true)
	if w.Code != http.StatusCreated {
		t.Fatalf("mount status = %d: %s", w.Code, w.Body.String())
	}
	var resp previewResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Override || resp.PreviewID == "" || resp.State != "applied" {
		t.Errorf("unexpected mount response %+v", resp)
	}

	w = do(http.MethodPost, "/api/v1/files/7/preview", true)
	var native previewResponse
	json.NewDecoder(w.Body).Decode(&native)
	if w.Code != http.StatusOK || native.Override {
		t.Errorf("exe should keep native preview: %d %+v", w.Code, native)
	}

	if w := do(http.MethodPost, "/api/v1/files/missing/preview", true); w.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d", w.Code)
	}
	if w := do(http.MethodGet, "/api/v1/previews/"+resp.PreviewID, false); w.Code != http.StatusOK {
		t.Errorf("get preview status = %d", w.Code)
	}
	if w := do(http.MethodPost, "/api/v1/session/identity", false); w.Code != http.StatusBadRequest {
		t.Errorf("identity without header status = %d", w.Code)
	}
	if w := do(http.MethodPost, "/api/v1/session/identity", true); w.Code != http.StatusOK {
		t.Errorf("identity status = %d", w.Code)
	}

	w = do(http.MethodGet, "/panel/viewer", false)
	if w.Code != http.StatusOK || w.Body.String() != "<p>panel</p>" {
		t.Errorf("panel = %d %q", w.Code, w.Body.String())
	}
	if w := do(http.MethodGet, "/panel/nope", false); w.Code != http.StatusNotFound {
		t.Errorf("unknown panel status = %d", w.Code)
	}

	if w := do(http.MethodDelete, "/api/v1/previews/"+resp.PreviewID, false); w.Code != http.StatusNoContent {
		t.Errorf("unmount status = %d", w.Code)
	}
	if w := do(http.MethodDelete, "/api/v1/previews/"+resp.PreviewID, false); w.Code != http.StatusNotFound {
		t.Errorf("second unmount status = %d", w.Code)
	}
}

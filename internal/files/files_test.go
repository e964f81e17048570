package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jyoonje/collabview-plugin/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestCreateAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	f := &File{Name: "Report.PDF", Path: "docs/Report.PDF", Size: 10}
	if err := s.Create(ctx, f); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID == "" {
		t.Fatal("expected generated id")
	}
	if f.Extension != "pdf" {
		t.Errorf("Extension = %q, want pdf", f.Extension)
	}

	got, err := s.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Report.PDF" || got.Path != "docs/Report.PDF" || got.Size != 10 {
		t.Errorf("unexpected file: %+v", got)
	}

	info, err := s.FileInfo(ctx, f.ID)
	if err != nil {
		t.Fatalf("FileInfo: %v", err)
	}
	if info.ID != f.ID || info.Extension != "pdf" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateRequiresName(t *testing.T) {
	s := setupStore(t)
	if err := s.Create(context.Background(), &File{}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestListLimit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := s.Create(ctx, &File{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(0) = %d files, want 3", len(all))
	}
	two, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 {
		t.Errorf("List(2) = %d files, want 2", len(two))
	}
}

func TestImport(t *testing.T) {
	s := setupStore(t)
	root := t.TempDir()
	for _, rel := range []string{"a.pdf", "sub/b.docx", "sub/skip.tmp"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		os.MkdirAll(filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	opts := ImportOptions{Root: root, Exclude: []string{"*.tmp"}}
	res, err := s.Import(context.Background(), opts)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Added != 2 || res.Skipped != 0 {
		t.Errorf("first import = %+v, want 2 added", res)
	}

	res, err = s.Import(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if res.Added != 0 || res.Skipped != 2 {
		t.Errorf("second import = %+v, want 2 skipped", res)
	}

	f, err := s.GetByPath(context.Background(), "sub/b.docx")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if f.Extension != "docx" {
		t.Errorf("Extension = %q", f.Extension)
	}
}

func TestRoutes(t *testing.T) {
	s := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, s)

	body, _ := json.Marshal(createRequest{ID: "42", Name: "report.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", w.Code, w.Body.String())
	}

	for _, path := range []string{"/api/v1/files/42", "/api/v1/fileinfo?fileID=42"} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, w.Code)
		}
		var f File
		json.NewDecoder(w.Body).Decode(&f)
		if f.ID != "42" || f.Extension != "pdf" {
			t.Errorf("GET %s = %+v", path, f)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var list []File
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Errorf("list = %d files, want 1", len(list))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/fileinfo", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("fileinfo without id status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/files/42", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/42", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", w.Code)
	}
}

package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8065 {
		t.Errorf("expected default port 8065, got %d", cfg.Server.Port)
	}
	if cfg.Viewer.Authority != "3" {
		t.Errorf("expected default authority %q, got %q", "3", cfg.Viewer.Authority)
	}
	if cfg.Viewer.SlotID != "viewer" {
		t.Errorf("expected default slot %q, got %q", "viewer", cfg.Viewer.SlotID)
	}
	if cfg.ViewerTimeout() != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.ViewerTimeout())
	}
	if cfg.Collabview.FileDir != "public/OUT/destFile" {
		t.Errorf("unexpected file_dir %q", cfg.Collabview.FileDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestViewerEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 9000
	if got := cfg.ViewerEndpoint(); got != "http://localhost:9000/api/v1/viewer-redirect" {
		t.Errorf("default endpoint = %q", got)
	}
	cfg.Viewer.Endpoint = "https://mm.example.com/plugins/collabview/api/v1/viewer-redirect"
	if got := cfg.ViewerEndpoint(); got != cfg.Viewer.Endpoint {
		t.Errorf("explicit endpoint = %q", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.collabview.yml")

	original := DefaultConfig()
	original.Server.Port = 9100
	original.Log.Format = LogFormatJSON
	original.Viewer.Authority = "5"
	original.Viewer.TimeoutSeconds = 3
	original.Collabview.URL = "http://cv:8080"
	original.Eligibility.Extensions = []string{"pdf", "esob"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.Port != 9100 {
		t.Errorf("port: got %d, want 9100", loaded.Server.Port)
	}
	if loaded.Log.Format != LogFormatJSON {
		t.Errorf("log.format: got %q", loaded.Log.Format)
	}
	if loaded.Viewer.Authority != "5" {
		t.Errorf("authority: got %q", loaded.Viewer.Authority)
	}
	if loaded.Viewer.TimeoutSeconds != 3 {
		t.Errorf("timeout: got %d", loaded.Viewer.TimeoutSeconds)
	}
	if loaded.Collabview.URL != "http://cv:8080" {
		t.Errorf("collabview.url: got %q", loaded.Collabview.URL)
	}
	if len(loaded.Eligibility.Extensions) != 2 {
		t.Fatalf("extensions length: got %d, want 2", len(loaded.Eligibility.Extensions))
	}
	for i, v := range []string{"pdf", "esob"} {
		if loaded.Eligibility.Extensions[i] != v {
			t.Errorf("extensions[%d]: got %q, want %q", i, loaded.Eligibility.Extensions[i], v)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Server.Port != 8065 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("COLLABVIEW_SERVER__PORT", "9999")
	t.Setenv("COLLABVIEW_VIEWER__AUTHORITY", "7")
	t.Setenv("COLLABVIEW_DATA_DIR", "/var/lib/collabview")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("port override failed: got %d", loaded.Server.Port)
	}
	if loaded.Viewer.Authority != "7" {
		t.Errorf("authority override failed: got %q", loaded.Viewer.Authority)
	}
	if loaded.DataDir != "/var/lib/collabview" {
		t.Errorf("data_dir override failed: got %q", loaded.DataDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"non-http endpoint", func(c *Config) { c.Viewer.Endpoint = "ftp://host/x" }},
		{"empty authority", func(c *Config) { c.Viewer.Authority = "" }},
		{"zero timeout", func(c *Config) { c.Viewer.TimeoutSeconds = 0 }},
		{"empty slot", func(c *Config) { c.Viewer.SlotID = "" }},
		{"no extensions", func(c *Config) { c.Eligibility.Extensions = nil }},
		{"bad deny glob", func(c *Config) { c.Eligibility.Deny = []string{"[a-"} }},
		{"bad collabview url", func(c *Config) { c.Collabview.URL = "cv:8080" }},
		{"negative max size", func(c *Config) { c.Import.MaxFileSizeMB = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"pdf,docx,pptx", []string{"pdf", "docx", "pptx"}},
		{" pdf , docx , pptx ", []string{"pdf", "docx", "pptx"}},
		{"**/*.pdf", []string{"**/*.pdf"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/jyoonje/collabview-plugin/internal/eligibility"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".collabview.yml"

// DefaultExtensions are the file types the external viewer can display.
var DefaultExtensions = eligibility.DefaultExtensions

// DefaultDeny are file-name globs never shown in the viewer.
var DefaultDeny = []string{
	"~$*",
	"*.tmp",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8065,
		},
		DataDir: ".collabview",
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		Viewer: ViewerConfig{
			Authority:      "3",
			TimeoutSeconds: 10,
			SlotID:         "viewer",
			PanelTitle:     "CollabView",
		},
		Eligibility: EligibilityConfig{
			Extensions: append([]string(nil), DefaultExtensions...),
			Deny:       append([]string(nil), DefaultDeny...),
		},
		Collabview: CollabviewConfig{
			FileDir: "public/OUT/destFile",
		},
		Import: ImportConfig{
			Include:       []string{"**"},
			MaxFileSizeMB: 512,
		},
	}
}

// ViewerEndpoint returns the configured resolution endpoint, defaulting to
// this server's own viewer-redirect route.
func (c *Config) ViewerEndpoint() string {
	if c.Viewer.Endpoint != "" {
		return c.Viewer.Endpoint
	}
	return fmt.Sprintf("http://localhost:%d/api/v1/viewer-redirect", c.Server.Port)
}

// ViewerTimeout returns the resolution timeout.
func (c *Config) ViewerTimeout() time.Duration {
	return time.Duration(c.Viewer.TimeoutSeconds) * time.Second
}

// DatabasePath returns the SQLite file path under DataDir.
func (c *Config) DatabasePath() string {
	return c.DataDir + "/collabview.db"
}

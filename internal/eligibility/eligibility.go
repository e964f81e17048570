// Package eligibility decides which files the viewer overrides the native
// preview for.
package eligibility

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jyoonje/collabview-plugin/internal/host"
)

// DefaultExtensions are the file types the external viewer can display.
var DefaultExtensions = []string{
	"pdf", "docx", "pptx", "xlsx", "txt", "csv", "esob",
	"png", "jpg", "jpeg", "svg", "psd", "ai",
}

// executableExtensions are never eligible, whatever the configuration says.
var executableExtensions = map[string]bool{
	"exe": true, "msi": true, "bat": true, "cmd": true, "com": true,
	"scr": true, "dll": true, "ps1": true, "sh": true, "jar": true,
	"apk": true, "app": true, "bin": true,
}

// Policy is the static eligibility configuration.
type Policy struct {
	supported map[string]bool
	deny      []string
}

// NewPolicy builds a policy from the supported extensions and optional deny
// globs matched against the file name (doublestar syntax, e.g. "**/*.tmp").
func NewPolicy(extensions, deny []string) (*Policy, error) {
	p := &Policy{supported: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		if n := Normalize(ext); n != "" {
			p.supported[n] = true
		}
	}
	for _, pattern := range deny {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid deny pattern %q", pattern)
		}
		p.deny = append(p.deny, pattern)
	}
	return p, nil
}

// Default returns the policy for DefaultExtensions with no deny globs.
func Default() *Policy {
	p, _ := NewPolicy(DefaultExtensions, nil)
	return p
}

// Normalize lower-cases ext and strips a leading dot.
func Normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Extension returns the normalized extension of file, falling back to its
// name when the host did not report one.
func Extension(file host.FileInfo) string {
	if ext := Normalize(file.Extension); ext != "" {
		return ext
	}
	return Normalize(path.Ext(file.Name))
}

// Denied reports whether file is excluded by the executable denylist or a
// deny glob.
func (p *Policy) Denied(file host.FileInfo) bool {
	ext := Extension(file)
	if executableExtensions[ext] || executableExtensions[Normalize(path.Ext(file.Name))] {
		return true
	}
	name := filepath.ToSlash(file.Name)
	for _, pattern := range p.deny {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, path.Base(name)); err == nil && ok {
			return true
		}
	}
	return false
}

// Eligible reports whether the viewer should replace the native preview of
// file.
func (p *Policy) Eligible(file host.FileInfo) bool {
	if p.Denied(file) {
		return false
	}
	return p.supported[Extension(file)]
}

// Extensions lists the supported extensions.
func (p *Policy) Extensions() []string {
	out := make([]string, 0, len(p.supported))
	for ext := range p.supported {
		out = append(out, ext)
	}
	return out
}

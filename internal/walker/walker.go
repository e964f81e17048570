// Package walker finds the documents under a directory that should be added
// to the file catalog.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize is the largest document catalogued (512 MB).
const DefaultMaxFileSize int64 = 512 << 20

// FileInfo holds metadata about a single file discovered during traversal.
type FileInfo struct {
	Path      string // Absolute path on disk.
	RelPath   string // Path relative to the root directory, slash separated.
	Name      string
	Extension string // Lower-case, without the dot.
	Size      int64
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir     string
	Include     []string // Glob patterns; only matching files are included.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // 0 uses DefaultMaxFileSize.
}

// Walk traverses the tree rooted at config.RootDir and returns every regular
// file that passes filtering, sorted by relative path.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || hiddenFiles[name] {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !MatchesInclude(relPath, config.Include) || MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:      path,
			RelPath:   filepath.ToSlash(relPath),
			Name:      name,
			Extension: strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")),
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

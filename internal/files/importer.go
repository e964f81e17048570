package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jyoonje/collabview-plugin/internal/progress"
	"github.com/jyoonje/collabview-plugin/internal/walker"
)

// ImportOptions controls a directory import.
type ImportOptions struct {
	Root        string
	Include     []string
	Exclude     []string
	MaxFileSize int64
	Reporter    progress.Reporter
	Logger      *slog.Logger
}

// ImportResult summarises an import.
type ImportResult struct {
	Added   int
	Skipped int
}

// Import catalogues every file under opts.Root. Files already catalogued
// at the same path are skipped.
func (s *Store) Import(ctx context.Context, opts ImportOptions) (ImportResult, error) {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	found, err := walker.Walk(walker.WalkerConfig{
		RootDir:     opts.Root,
		Include:     opts.Include,
		Exclude:     opts.Exclude,
		MaxFileSize: opts.MaxFileSize,
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("scanning %s: %w", opts.Root, err)
	}

	var res ImportResult
	opts.Reporter.Start(len(found))
	defer opts.Reporter.Finish()

	for i, wf := range found {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		opts.Reporter.Update(i+1, wf.RelPath)

		if _, err := s.GetByPath(ctx, wf.RelPath); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return res, err
		}

		f := &File{Name: wf.Name, Extension: wf.Extension, Path: wf.RelPath, Size: wf.Size}
		if err := s.Create(ctx, f); err != nil {
			return res, fmt.Errorf("importing %s: %w", wf.RelPath, err)
		}
		opts.Logger.Debug("file imported", slog.String("id", f.ID), slog.String("path", f.Path))
		res.Added++
	}
	return res, nil
}

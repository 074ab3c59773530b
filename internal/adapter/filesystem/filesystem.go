// Package filesystem locates raw input binaries and lays out granule output
// directories.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/seaice-etl/internal/domain"
)

// errFound stops the directory walk at the first match.
var errFound = errors.New("found")

// Finder searches Root recursively for a job's input binary.
// It implements pipeline.InputFinder.
type Finder struct {
	Root string
}

// Find returns the first file under Root named per domain.BinaryFilename.
// Unreadable subdirectories are skipped.
func (f Finder) Find(ctx context.Context, date time.Time, h domain.Hemisphere) (string, error) {
	name := domain.BinaryFilename(date, h)

	var match string
	err := filepath.WalkDir(f.Root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == f.Root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && d.Name() == name {
			match = path
			return errFound
		}
		return nil
	})

	switch {
	case errors.Is(err, errFound):
		return match, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %s: binary directory %s does not exist", domain.ErrMissingInputFile, name, f.Root)
	case err != nil:
		return "", fmt.Errorf("search %s: %w", f.Root, err)
	}
	return "", fmt.Errorf("%w: %s not found under %s", domain.ErrMissingInputFile, name, f.Root)
}

// Layout places granules under Root/YYYY.MM.DD/.
// It implements pipeline.OutputLocator.
type Layout struct {
	Root    string
	Version string
}

// OutputPath returns the granule path for (date, h) and creates its date
// directory.
func (l Layout) OutputPath(date time.Time, h domain.Hemisphere) (string, error) {
	dir := filepath.Join(l.Root, domain.DateDirectory(date))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	version := l.Version
	if version == "" {
		version = domain.DefaultVersion
	}
	return filepath.Join(dir, domain.OutputFilename(date, h, version)), nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fluxcd/pkg/lockedfile"

	"staticmenus/internal/slug"
)

const (
	fileDisplayName = "HTML File"

	// fileExt is appended to every cache file name.
	fileExt = ".html"

	// fallbackFileName is used when a FileNamer yields nothing usable.
	fallbackFileName = "menu"
)

// ErrUnsafePath is returned when a directory operation would touch the
// filesystem root or a relative path.
var ErrUnsafePath = errors.New("unsafe cache path")

// FileNamer picks the file name (without extension) for a fingerprint.
type FileNamer func(fp string) string

// FileBackend writes each entry to <root>/<namespace>/<name>.html.
type FileBackend struct {
	dir    string
	maxAge time.Duration
	namer  FileNamer
}

// FileOption configures a FileBackend.
type FileOption func(*FileBackend)

// WithFileNamer replaces the default fingerprint file name.
func WithFileNamer(n FileNamer) FileOption {
	return func(b *FileBackend) {
		if n != nil {
			b.namer = n
		}
	}
}

// WithMaxAge makes files older than d read as misses. Zero disables it.
func WithMaxAge(d time.Duration) FileOption {
	return func(b *FileBackend) {
		b.maxAge = d
	}
}

// NewFileBackend returns a file backend rooted at root/namespace. The
// namespace must already be sanitized.
func NewFileBackend(root, namespace string, opts ...FileOption) *FileBackend {
	b := &FileBackend{
		dir:   filepath.Join(root, filepath.FromSlash(namespace)),
		namer: func(fp string) string { return fp },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dir is the directory holding the cache files.
func (b *FileBackend) Dir() string {
	return b.dir
}

// Path returns the file an entry for fp is stored in.
func (b *FileBackend) Path(fp string) string {
	name := slug.Generate(b.namer(fp))
	if name == "" {
		name = fallbackFileName
	}
	return filepath.Join(b.dir, name+fileExt)
}

// Get returns the file contents for fp when the file exists, is a regular
// readable file and has not outlived the max age.
func (b *FileBackend) Get(_ context.Context, fp string) (string, bool) {
	path := b.Path(fp)

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("file cache stat error", "path", path, "error", err)
		}
		return "", false
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	if b.maxAge > 0 && time.Since(info.ModTime()) > b.maxAge {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("file cache expire error", "path", path, "error", err)
		}
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("file cache read error", "path", path, "error", err)
		return "", false
	}
	return string(data), true
}

// Set writes markup to a temp file in the cache directory and renames it
// over the target, so readers see either the old file or the new one.
// The ttl is ignored; expiry is governed by the max age.
func (b *FileBackend) Set(_ context.Context, fp, markup string, _ time.Duration) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("create cache directory: %w", err)
	}

	unlock, err := b.lock()
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(b.dir, ".tmp-*"+fileExt)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(markup); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("chmod cache file: %w", err)
	}
	if err := os.Rename(tmpName, b.Path(fp)); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// ClearAll removes every file below the cache directory and any
// subdirectory left empty. The cache directory itself and everything
// above it are kept.
func (b *FileBackend) ClearAll(_ context.Context) error {
	if err := checkRemovable(b.dir); err != nil {
		return err
	}
	if _, err := os.Stat(b.dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	unlock, err := b.lock()
	if err != nil {
		return err
	}
	defer unlock()

	var dirs []string
	var errs []error
	removed := 0
	walkErr := filepath.WalkDir(b.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if path == b.dir {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			return nil
		}
		removed++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	// Deepest first so parents are empty by the time they are reached.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		// Remove only succeeds on empty directories; non-empty ones stay.
		_ = os.Remove(dir)
	}

	slog.Debug("file cache cleared", "dir", b.dir, "removed", removed)
	return errors.Join(errs...)
}

// PurgeExpired removes cache files in the directory that outlived the max
// age, including temp files left by interrupted writes. Without a max age
// nothing expires.
func (b *FileBackend) PurgeExpired(_ context.Context) (int, error) {
	if b.maxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(b.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache directory: %w", err)
	}

	unlock, err := b.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	cutoff := time.Now().Add(-b.maxAge)
	var errs []error
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// DisplayName implements Backend.
func (b *FileBackend) DisplayName() string {
	return fileDisplayName
}

// lock takes the cross-process mutex guarding writes to the directory.
// The lock file sits next to the directory so ClearAll never removes it.
func (b *FileBackend) lock() (func(), error) {
	mu := lockedfile.MutexAt(strings.TrimRight(b.dir, string(filepath.Separator)) + ".lock")
	unlock, err := mu.Lock()
	if err != nil {
		return nil, fmt.Errorf("lock cache directory: %w", err)
	}
	return unlock, nil
}

// checkRemovable rejects empty, relative and root paths.
func checkRemovable(dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || !filepath.IsAbs(clean) || clean == filepath.Dir(clean) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, dir)
	}
	return nil
}

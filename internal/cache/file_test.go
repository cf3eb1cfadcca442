// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileBackendLayout(t *testing.T) {
	root := t.TempDir()
	b := NewFileBackend(root, "cache/wp-static-menus/")
	ctx := context.Background()

	if err := b.Set(ctx, "3ea603b2cf073a316481859c8c5032c5", "<nav></nav>", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	path := filepath.Join(root, "cache", "wp-static-menus", "3ea603b2cf073a316481859c8c5032c5.html")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
	if string(data) != "<nav></nav>" {
		t.Errorf("file content: got %q", data)
	}
	if b.Path("3ea603b2cf073a316481859c8c5032c5") != path {
		t.Errorf("Path: got %q, want %q", b.Path("3ea603b2cf073a316481859c8c5032c5"), path)
	}

	entries, _ := os.ReadDir(b.Dir())
	if len(entries) != 1 {
		t.Errorf("expected only the cache file, found %d entries", len(entries))
	}
}

func TestFileBackendNamer(t *testing.T) {
	root := t.TempDir()
	b := NewFileBackend(root, "menus/", WithFileNamer(func(string) string { return "Primary Menu" }))

	if got := filepath.Base(b.Path("abc")); got != "primary-menu.html" {
		t.Errorf("named file: got %q", got)
	}

	empty := NewFileBackend(root, "menus/", WithFileNamer(func(string) string { return "../../" }))
	if got := filepath.Base(empty.Path("abc")); got != "menu.html" {
		t.Errorf("fallback file: got %q", got)
	}
	if filepath.Dir(empty.Path("abc")) != empty.Dir() {
		t.Error("namer escaped the cache directory")
	}
}

func TestFileBackendMaxAge(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "c/", WithMaxAge(time.Minute))
	ctx := context.Background()

	b.Set(ctx, "fp", "x", 0)
	if _, ok := b.Get(ctx, "fp"); !ok {
		t.Fatal("expected hit on fresh file")
	}

	old := time.Now().Add(-2 * time.Minute)
	if err := os.Chtimes(b.Path("fp"), old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if _, ok := b.Get(ctx, "fp"); ok {
		t.Error("expected miss on stale file")
	}
	if _, err := os.Stat(b.Path("fp")); !os.IsNotExist(err) {
		t.Error("stale file should be removed")
	}
}

func TestFileBackendPurgeExpired(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "c/", WithMaxAge(time.Minute))
	ctx := context.Background()

	if n, err := b.PurgeExpired(ctx); err != nil || n != 0 {
		t.Fatalf("PurgeExpired on missing dir: %d, %v", n, err)
	}

	b.Set(ctx, "fresh", "x", 0)
	b.Set(ctx, "stale", "x", 0)
	leftover := filepath.Join(b.Dir(), ".tmp-123.html")
	os.WriteFile(leftover, []byte("x"), 0o644)
	notes := filepath.Join(b.Dir(), "notes.txt")
	os.WriteFile(notes, []byte("x"), 0o644)

	old := time.Now().Add(-2 * time.Minute)
	for _, p := range []string{b.Path("stale"), leftover, notes} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	n, err := b.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("removed: got %d, want 2", n)
	}
	if _, ok := b.Get(ctx, "fresh"); !ok {
		t.Error("fresh file removed")
	}
	for _, p := range []string{b.Path("stale"), leftover} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s survived the purge", filepath.Base(p))
		}
	}
	if _, err := os.Stat(notes); err != nil {
		t.Error("non-cache file removed")
	}
}

func TestFileBackendPurgeWithoutMaxAge(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "c/")
	ctx := context.Background()
	b.Set(ctx, "fp", "x", 0)
	old := time.Now().Add(-24 * time.Hour)
	os.Chtimes(b.Path("fp"), old, old)

	if n, err := b.PurgeExpired(ctx); err != nil || n != 0 {
		t.Errorf("PurgeExpired: %d, %v; want nothing removed", n, err)
	}
}

func TestFileBackendGetDirectoryIsMiss(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "c/")
	if err := os.MkdirAll(b.Path("fp"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Get(context.Background(), "fp"); ok {
		t.Error("expected miss when the entry path is a directory")
	}
}

func TestFileBackendSetUnwritable(t *testing.T) {
	root := t.TempDir()
	// A regular file where the cache directory should be.
	blocker := filepath.Join(root, "c")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewFileBackend(root, "c/")
	if err := b.Set(context.Background(), "fp", "x", 0); err == nil {
		t.Error("expected Set to fail")
	}
	if _, ok := b.Get(context.Background(), "fp"); ok {
		t.Error("expected miss")
	}
}

func TestFileBackendClearAllKeepsDirAndSiblings(t *testing.T) {
	root := t.TempDir()
	b := NewFileBackend(root, "cache/wp-static-menus/")
	ctx := context.Background()

	b.Set(ctx, "aaaa", "a", 0)
	nested := filepath.Join(b.Dir(), "nested", "deeper")
	os.MkdirAll(nested, 0o755)
	os.WriteFile(filepath.Join(nested, "x.html"), []byte("x"), 0o644)

	sibling := filepath.Join(root, "cache", "other.html")
	os.WriteFile(sibling, []byte("keep"), 0o644)

	if err := b.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	entries, err := os.ReadDir(b.Dir())
	if err != nil {
		t.Fatalf("cache dir removed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir not emptied: %d entries left", len(entries))
	}
	if _, err := os.Stat(sibling); err != nil {
		t.Errorf("sibling outside the cache dir removed: %v", err)
	}
}

func TestFileBackendClearAllMissingDir(t *testing.T) {
	b := NewFileBackend(t.TempDir(), "never/created/")
	if err := b.ClearAll(context.Background()); err != nil {
		t.Errorf("ClearAll on missing dir: %v", err)
	}
}

func TestFileBackendClearAllRefusesRelative(t *testing.T) {
	b := NewFileBackend("relative", "c/")
	if err := b.ClearAll(context.Background()); !errors.Is(err, ErrUnsafePath) {
		t.Errorf("got %v, want ErrUnsafePath", err)
	}
}

func TestCheckRemovable(t *testing.T) {
	tests := []struct {
		dir string
		ok  bool
	}{
		{"", false},
		{"/", false},
		{"//", false},
		{"relative/dir", false},
		{"/var/www/content/cache", true},
	}
	for _, tt := range tests {
		err := checkRemovable(tt.dir)
		if (err == nil) != tt.ok {
			t.Errorf("checkRemovable(%q) = %v, want ok=%v", tt.dir, err, tt.ok)
		}
	}
}

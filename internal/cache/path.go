// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DeletionTarget returns the directory to remove when the cache path moves
// from oldPath to newPath. Both are slash-separated. The target is oldPath
// cut one segment past the prefix it shares with newPath, so the deepest
// shared ancestor survives. The common prefix never covers all of oldPath,
// which keeps the last segment of oldPath a candidate even when newPath
// nests inside it.
//
//	DeletionTarget("/cache/wp-static-menus/", "/cache/wp-static-menus/sub/")
//	// "/cache/wp-static-menus/", true
//
// ok is false when the paths are identical or oldPath has no segments.
func DeletionTarget(oldPath, newPath string) (string, bool) {
	oldSegs := splitPath(oldPath)
	newSegs := splitPath(newPath)

	if len(oldSegs) == 0 || equalSegments(oldSegs, newSegs) {
		return "", false
	}

	common := 0
	for common < len(oldSegs)-1 && common < len(newSegs) && oldSegs[common] == newSegs[common] {
		common++
	}

	target := strings.Join(oldSegs[:common+1], "/")
	if target == "" {
		// Only the leading empty segment of an absolute path.
		return "", false
	}
	return target + "/", true
}

// RemoveFormerDirectory deletes the directory left behind when the cache
// namespace below root changes from oldNS to newNS. The directory chosen by
// DeletionTarget is removed with everything in it; root itself and
// anything outside it are never touched.
func RemoveFormerDirectory(root, oldNS, newNS string) error {
	if err := checkRemovable(root); err != nil {
		return err
	}

	target, ok := DeletionTarget(oldNS, newNS)
	if !ok {
		return nil
	}

	dir := filepath.Join(root, filepath.FromSlash(target))
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q escapes %q", ErrUnsafePath, target, root)
	}
	if err := checkRemovable(dir); err != nil {
		return err
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove former cache directory: %w", err)
	}
	// The lock file lives beside the directory it guards.
	if err := os.Remove(strings.TrimRight(dir, string(filepath.Separator)) + ".lock"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("remove cache lock file", "dir", dir, "error", err)
	}

	slog.Info("former cache directory removed", "dir", dir, "new_namespace", newNS)
	return nil
}

// splitPath splits p on "/" and drops trailing empty segments. A leading
// empty segment marks an absolute path and is kept.
func splitPath(p string) []string {
	segs := strings.Split(p, "/")
	for len(segs) > 0 && segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	return segs
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Package writer holds the atomic-write primitive shared by the csvio and
// parquetio sinks (spec §4.7: "Writes are atomic: write to a temporary
// sibling file, fsync, rename into place"). Neither sink format dictates
// this; both need it identically, so it lives one level up from both.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile opens a temporary sibling of path for writing and calls fn
// with it. On success the temp file is fsynced, closed and renamed into
// place; on any failure (from fn or from the fsync/rename) the temp file
// is removed on a best-effort basis and the original error is returned
// (spec §5: "temporary files are removed on a best-effort basis").
func AtomicFile(path string, fn func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = fn(tmp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("fsync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}

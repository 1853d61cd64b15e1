package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// atomicWriter replaces one file so that readers of path only ever see the
// complete old content or the complete new content.
type atomicWriter struct {
	path       string // main file
	tmpPath    string // staging file, same directory as path
	backupPath string // copy of the previous main file
	policy     bestEffort
}

// write stages data in tmpPath (write, fsync, close), copies the current
// main file to backupPath as a best-effort step, then renames tmpPath over
// path. The staging file never outlives a call: it is either renamed or
// removed.
//
// ctx is checked before staging and again before the rename. Once the rename
// starts the write is no longer cancellable. Errors caused by ctx wrap
// ctx.Err().
func (w atomicWriter) write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeSynced(w.tmpPath, data); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("staging %s: %w", w.tmpPath, err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(w.tmpPath)
		return err
	}

	w.policy.run(OpBackup, w.backupPath, func() error {
		return copyIfExists(w.path, w.backupPath)
	})

	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("replacing %s: %w", w.path, err)
	}

	dir := filepath.Dir(w.path)
	w.policy.run(OpSyncDir, dir, func() error {
		return syncDir(dir)
	})
	return nil
}

// writeSynced creates or truncates path, writes data, and fsyncs before
// closing. The caller removes path on error.
func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	return nil
}

// copyIfExists copies src to dst, overwriting dst. A missing src is not an
// error: there is no previous version to keep.
func copyIfExists(src, dst string) error {
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// syncDir fsyncs a directory so a completed rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

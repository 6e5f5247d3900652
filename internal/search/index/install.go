package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// Install writes idx into a temporary sibling of dir and swaps it into place
// while holding the exclusive index lock.
func Install(ctx context.Context, idx *Index, dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", parent, err)
	}
	tmpDir, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := Write(tmpDir, idx); err != nil {
		return err
	}

	unlock, err := acquireIndexLock(ctx, dir, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := AtomicSwap(tmpDir, dir); err != nil {
		return fmt.Errorf("cannot install index: %w", err)
	}
	return nil
}

// Open loads the index installed at dir under the shared index lock.
func Open(ctx context.Context, dir string) (*Index, error) {
	unlock, err := acquireIndexLock(ctx, dir, true)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return Load(dir)
}

// acquireIndexLock obtains the lock file next to dir, shared for readers and
// exclusive for writers, polling until ctx is done.
func acquireIndexLock(ctx context.Context, dir string, shared bool) (func(), error) {
	lockPath := dir + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock dir: %w", err)
	}
	l := flock.New(lockPath)
	try := l.TryLock
	if shared {
		try = l.TryRLock
	}
	for {
		locked, err := try()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire index lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		select {
		case <-ctx.Done():
			return func() {}, fmt.Errorf("index is locked by another process (lock: %s): %w", lockPath, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
}

// AtomicSwap replaces destDir with srcDir by renaming.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}

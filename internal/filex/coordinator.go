package filex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockName is the lock file created in every coordinated directory.
const LockName = ".seedkeeper.lock"

// ErrDestinationExists is returned by Move when the target is taken.
var ErrDestinationExists = errors.New("destination exists")

// lockRetry is how often a busy lock is polled.
var lockRetry = 10 * time.Millisecond

// Coordinator serialises writers of one directory with an advisory lock on
// LockName. Each operation holds the lock only for its own duration.
type Coordinator struct {
	dir string
}

func NewCoordinator(dir string) *Coordinator {
	return &Coordinator{dir: dir}
}

// Dir is the coordinated directory.
func (c *Coordinator) Dir() string {
	return c.dir
}

// Do runs fn while holding the directory lock. It waits for the lock until
// ctx is done.
func (c *Coordinator) Do(ctx context.Context, fn func() error) error {
	f, err := os.OpenFile(filepath.Join(c.dir, LockName), os.O_CREATE|os.O_RDWR, 0o660)
	if err != nil {
		return fmt.Errorf("open lock: %w", err)
	}
	defer f.Close()

	for {
		ok, err := tryLock(f)
		if err != nil {
			return fmt.Errorf("lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetry):
		}
	}
	defer func() { _ = unlock(f) }()

	return fn()
}

// WriteFile atomically writes data to path: the content goes to a hidden
// temporary file in the same directory which is then renamed into place.
func (c *Coordinator) WriteFile(ctx context.Context, path string, data []byte) error {
	return c.Do(ctx, func() error {
		return writeAtomic(path, data)
	})
}

// Create writes data to a new file at path. It fails with
// ErrDestinationExists if path is taken.
func (c *Coordinator) Create(ctx context.Context, path string, data []byte) error {
	return c.Do(ctx, func() error {
		exists, err := Exists(path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("create %s: %w", filepath.Base(path), ErrDestinationExists)
		}
		return writeAtomic(path, data)
	})
}

// Move renames from to to. It refuses to replace an existing file.
func (c *Coordinator) Move(ctx context.Context, from, to string) error {
	return c.Do(ctx, func() error {
		exists, err := Exists(to)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("move %s: %w", filepath.Base(to), ErrDestinationExists)
		}
		return os.Rename(from, to)
	})
}

// Remove deletes path. A missing file is not an error.
func (c *Coordinator) Remove(ctx context.Context, path string) error {
	return c.Do(ctx, func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

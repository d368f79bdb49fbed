package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Export writes view to path via a temp file and rename, holding an
// exclusive lock on path+".lock" so concurrent writers never interleave.
func Export(ctx context.Context, path, view string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("export lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("export lock: not acquired")
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(view); err != nil {
		tmp.Close()
		return fmt.Errorf("export write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export rename: %w", err)
	}
	return nil
}

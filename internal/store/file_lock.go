package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
)

// FileLocker takes an exclusive flock on a sidecar lock file. It blocks
// until the lock is free.
type FileLocker struct {
	path string
}

func NewFileLocker(path string) *FileLocker {
	return &FileLocker{path: path}
}

func (l *FileLocker) Lock(ctx context.Context) (func(), error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return func() {
		if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
			slog.Error("Failed to release snapshot lock", "path", l.path, "error", err)
		}
		_ = f.Close()
	}, nil
}

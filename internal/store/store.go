// Package store persists queue snapshots and serializes access to them
// across worker processes.
package store

import (
	"context"
)

// Store reads and writes the raw snapshot document.
type Store interface {
	// Load returns status.ErrSnapshotNotFound when nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
}

// Locker guards a load-modify-save cycle on the snapshot.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// NopLocker is used when a single process owns the snapshot.
type NopLocker struct{}

func (NopLocker) Lock(context.Context) (func(), error) {
	return func() {}, nil
}

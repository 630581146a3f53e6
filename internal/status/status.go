package status

import "errors"

var (
	ErrMalformedSnapshot = errors.New("snapshot: malformed snapshot")
	ErrSnapshotNotFound  = errors.New("snapshot: snapshot not found")
	ErrLockTimeout       = errors.New("lock: timed out waiting for snapshot lock")
	ErrCircuitOpen       = errors.New("circuit breaker: circuit breaker is open")
	ErrTooManyRequests   = errors.New("circuit breaker: too many requests while half open")
	ErrNoSelection       = errors.New("selection: no selection recorded")
	ErrEmptyTitle        = errors.New("submission: title is required")
)

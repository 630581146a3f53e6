package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"album-rotation/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// File store tests

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "upcoming.json"))
	require.NoError(t, err)
	return s
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newTestFileStore(t)

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, status.ErrSnapshotNotFound)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []byte(`{"bins":[]}`)))

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bins":[]}`, string(data))
}

func TestFileStore_KeepsBackupOfPreviousSnapshot(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []byte(`{"next_id":1}`)))
	assert.NoFileExists(t, s.Path()+".bak")

	require.NoError(t, s.Save(ctx, []byte(`{"next_id":2}`)))

	backup, err := os.ReadFile(s.Path() + ".bak")
	require.NoError(t, err)
	assert.JSONEq(t, `{"next_id":1}`, string(backup))

	current, err := s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"next_id":2}`, string(current))
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, []byte(`{}`)))
	}
	require.NoError(t, s.Ping(ctx))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".snapshot-"), "leftover %s", e.Name())
	}
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, []byte(`{"next_id":1}`)))

	err := s.Save(ctx, []byte(`{"next_id":`))

	assert.ErrorIs(t, err, status.ErrMalformedSnapshot)
	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"next_id":1}`, string(data))
}

func TestFileStore_Ping(t *testing.T) {
	s := newTestFileStore(t)

	assert.NoError(t, s.Ping(context.Background()))
}

// File lock tests

func TestFileLocker_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upcoming.json.lock")
	ctx := context.Background()

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := NewFileLocker(path).Lock(ctx)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestFileLocker_BadPath(t *testing.T) {
	l := NewFileLocker(filepath.Join(t.TempDir(), "missing", "dir", "x.lock"))

	_, err := l.Lock(context.Background())

	assert.Error(t, err)
}

// Redis store tests

func TestRedisStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("queue:snapshot").SetVal(`{"bins":[]}`)

	data, err := NewRedisStore(db, "queue:snapshot").Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, `{"bins":[]}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LoadMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("queue:snapshot").RedisNil()

	_, err := NewRedisStore(db, "queue:snapshot").Load(context.Background())

	assert.ErrorIs(t, err, status.ErrSnapshotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LoadError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("queue:snapshot").SetErr(errors.New("connection refused"))

	_, err := NewRedisStore(db, "queue:snapshot").Load(context.Background())

	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, status.ErrSnapshotNotFound)
}

func TestRedisStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	data := []byte(`{"bins":[]}`)
	mock.ExpectSet("queue:snapshot", data, 0).SetVal("OK")

	err := NewRedisStore(db, "queue:snapshot").Save(context.Background(), data)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SaveError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	data := []byte(`{}`)
	mock.ExpectSet("queue:snapshot", data, 0).SetErr(errors.New("READONLY"))

	err := NewRedisStore(db, "queue:snapshot").Save(context.Background(), data)

	assert.ErrorContains(t, err, "READONLY")
}

func TestRedisStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	assert.NoError(t, NewRedisStore(db, "queue:snapshot").Ping(context.Background()))
}

// Redis lock tests

const lockKey = "lock:queue:snapshot"

func newTestLocker(t *testing.T, retry, wait time.Duration) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	l := NewRedisLocker(db, lockKey, 10*time.Second, retry, wait)
	l.newToken = func() (string, error) { return "token-1", nil }
	return l, mock
}

func TestRedisLocker_LockAndRelease(t *testing.T) {
	l, mock := newTestLocker(t, time.Millisecond, time.Second)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetVal(true)
	mock.ExpectEval(releaseLockScript, []string{lockKey}, "token-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_RetriesWhileHeld(t *testing.T) {
	l, mock := newTestLocker(t, time.Millisecond, time.Second)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetVal(false)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetVal(false)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetVal(true)
	mock.ExpectEval(releaseLockScript, []string{lockKey}, "token-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_TimesOut(t *testing.T) {
	l, mock := newTestLocker(t, 200*time.Millisecond, 20*time.Millisecond)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetVal(false)

	_, err := l.Lock(context.Background())

	assert.ErrorIs(t, err, status.ErrLockTimeout)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_CommandError(t *testing.T) {
	l, mock := newTestLocker(t, time.Millisecond, time.Second)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Lock(context.Background())

	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, status.ErrLockTimeout)
}

func TestRedisLocker_ExpiredLockReleaseIsHarmless(t *testing.T) {
	l, mock := newTestLocker(t, time.Millisecond, time.Second)
	mock.ExpectSetNX(lockKey, "token-1", 10*time.Second).SetVal(true)
	mock.ExpectEval(releaseLockScript, []string{lockKey}, "token-1").SetVal(int64(0))

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)

	assert.NotPanics(t, unlock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopLocker(t *testing.T) {
	unlock, err := NopLocker{}.Lock(context.Background())

	require.NoError(t, err)
	assert.NotPanics(t, unlock)
}

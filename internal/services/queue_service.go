package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"album-rotation/internal/selector"
	"album-rotation/internal/status"
	"album-rotation/internal/store"
	"album-rotation/monitoring"
	"album-rotation/models"

	"github.com/shopspring/decimal"
)

// HistoryRecorder keeps a durable log of selected entries.
type HistoryRecorder interface {
	Record(ctx context.Context, entry models.Entry) error
}

// Notifier announces a selection to listeners.
type Notifier interface {
	NotifySelection(ctx context.Context, entry models.Entry) error
}

// QueueService runs every queue operation as load, mutate, save under a
// process-local mutex and the store's cross-process lock. A failed save
// leaves the stored snapshot untouched.
type QueueService struct {
	mu       sync.Mutex
	store    store.Store
	locker   store.Locker
	history  HistoryRecorder
	notifier Notifier
	monitor  *monitoring.Monitor

	queueOpts []selector.Option
	now       func() time.Time
}

type QueueServiceOption func(*QueueService)

// WithQueueOptions passes options to every queue loaded from the store.
func WithQueueOptions(opts ...selector.Option) QueueServiceOption {
	return func(s *QueueService) {
		s.queueOpts = append(s.queueOpts, opts...)
	}
}

func WithServiceClock(now func() time.Time) QueueServiceOption {
	return func(s *QueueService) {
		s.now = now
	}
}

func NewQueueService(st store.Store, locker store.Locker, history HistoryRecorder, notifier Notifier, monitor *monitoring.Monitor, opts ...QueueServiceOption) *QueueService {
	if locker == nil {
		locker = store.NopLocker{}
	}
	s := &QueueService{
		store:    st,
		locker:   locker,
		history:  history,
		notifier: notifier,
		monitor:  monitor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init writes an empty snapshot when none exists yet.
func (s *QueueService) Init(ctx context.Context) error {
	return s.withQueue(ctx, func(q *selector.Queue, found bool) (bool, error) {
		if !found {
			slog.Info("No snapshot found, creating an empty queue")
		}
		return !found, nil
	})
}

// Submit stamps and enqueues a new entry.
func (s *QueueService) Submit(ctx context.Context, title, artist, contributorID string) (models.Entry, error) {
	if strings.TrimSpace(title) == "" {
		s.monitor.TrackQueueOperation("submit", "invalid")
		return models.Entry{}, status.ErrEmptyTitle
	}

	entry := models.Entry{
		Title:         title,
		Artist:        artist,
		ContributorID: contributorID,
		SubmittedAt:   s.now(),
	}

	err := s.withQueue(ctx, func(q *selector.Queue, _ bool) (bool, error) {
		q.Enqueue(entry)
		return true, nil
	})
	if err != nil {
		s.monitor.TrackQueueOperation("submit", "error")
		return models.Entry{}, err
	}

	s.monitor.TrackQueueOperation("submit", "success")
	slog.Info("Entry submitted", "title", entry.Title, "contributor_id", entry.ContributorID)
	return entry, nil
}

// SelectNext draws the next entry. It returns nil without error when the
// queue is empty. History and notification failures are logged only.
func (s *QueueService) SelectNext(ctx context.Context) (*models.Entry, error) {
	var (
		selected models.Entry
		ok       bool
	)
	err := s.withQueue(ctx, func(q *selector.Queue, _ bool) (bool, error) {
		selected, ok = q.SelectNext()
		return ok, nil
	})
	if err != nil {
		s.monitor.TrackQueueOperation("select", "error")
		return nil, err
	}
	if !ok {
		s.monitor.TrackQueueOperation("select", "empty")
		slog.Info("Selection skipped, queue is empty")
		return nil, nil
	}

	s.monitor.TrackQueueOperation("select", "success")
	slog.Info("Entry selected", "title", selected.Title, "artist", selected.Artist)

	if s.history != nil {
		if err := s.history.Record(ctx, selected); err != nil {
			slog.Error("Failed to record selection", "title", selected.Title, "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifySelection(ctx, selected); err != nil {
			slog.Error("Failed to publish selection", "title", selected.Title, "error", err)
		}
	}

	return &selected, nil
}

func (s *QueueService) Overview(ctx context.Context) (models.QueueOverview, error) {
	var overview models.QueueOverview
	err := s.withQueue(ctx, func(q *selector.Queue, _ bool) (bool, error) {
		overview = models.QueueOverview{
			Pending: q.TotalPending(),
			Buckets: q.Buckets(),
		}
		return false, nil
	})
	return overview, err
}

// Details reports each bucket with its odds of being picked next, rounded
// to four places, along with the current streak.
func (s *QueueService) Details(ctx context.Context) (models.QueueDetails, error) {
	var details models.QueueDetails
	err := s.withQueue(ctx, func(q *selector.Queue, _ bool) (bool, error) {
		odds := q.Odds()
		buckets := q.Buckets()

		details.Pending = q.TotalPending()
		details.Buckets = make([]models.BucketOdds, len(buckets))
		for i, b := range buckets {
			p := decimal.Zero
			if i < len(odds) {
				p = decimal.NewFromFloat(odds[i]).Round(4)
			}
			details.Buckets[i] = models.BucketOdds{BucketInfo: b, Odds: p}
		}
		details.StreakBucketID, details.StreakLength = q.Streak()
		return false, nil
	})
	return details, err
}

// Ping checks that the snapshot store is reachable.
func (s *QueueService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// withQueue loads the current snapshot, runs fn and saves the queue when fn
// reports a change. found is false when no snapshot existed.
func (s *QueueService) withQueue(ctx context.Context, fn func(q *selector.Queue, found bool) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("lock snapshot: %w", err)
	}
	defer unlock()

	q, found, err := s.load(ctx)
	if err != nil {
		return err
	}

	changed, err := fn(q, found)
	if err != nil || !changed {
		return err
	}

	data, err := selector.Marshal(q)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.store.Save(ctx, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.monitor.TrackSnapshotSave(time.Since(start))

	streakID, streakLen := q.Streak()
	if streakID < 0 {
		streakLen = 0
	}
	s.monitor.ObserveQueue(q.TotalPending(), len(q.Buckets()), streakLen)
	return nil
}

func (s *QueueService) load(ctx context.Context) (*selector.Queue, bool, error) {
	data, err := s.store.Load(ctx)
	if errors.Is(err, status.ErrSnapshotNotFound) {
		return selector.NewQueue(s.queueOpts...), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}

	q, err := selector.Unmarshal(data, s.queueOpts...)
	if err != nil {
		return nil, true, err
	}
	return q, true, nil
}

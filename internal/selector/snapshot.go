package selector

import (
	"fmt"
	"time"

	"album-rotation/internal/status"
	"album-rotation/models"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// Snapshot is the durable form of a Queue. Key names match the snapshot
// files written by earlier releases and must stay stable.
type Snapshot struct {
	Buckets        []BucketSnapshot `json:"bins" validate:"dive"`
	NextBucketID   *int             `json:"next_id,omitempty"`
	StreakBucketID *int             `json:"streak_id,omitempty"`
	StreakLength   *int             `json:"streak_len,omitempty"`
}

type BucketSnapshot struct {
	ID      *int            `json:"id" validate:"required"`
	Start   *string         `json:"start" validate:"required"`
	Entries []EntrySnapshot `json:"elements" validate:"required,dive"`
}

type EntrySnapshot struct {
	Title       *string `json:"title" validate:"required"`
	Artist      string  `json:"artist"`
	SubmittedBy string  `json:"submitted_by"`
	SubmittedOn *string `json:"submitted_on" validate:"required"`
	ChosenOn    string  `json:"chosen_on,omitempty"`
	Date        string  `json:"date"`
	Image       string  `json:"image"`
}

// Offset-less layouts cover ISO timestamps written without a zone; they
// are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

var validate = validator.New()

// Serialize captures the full queue state.
func Serialize(q *Queue) *Snapshot {
	s := &Snapshot{
		Buckets:        make([]BucketSnapshot, 0, len(q.buckets)),
		NextBucketID:   ptr(q.nextBucketID),
		StreakBucketID: ptr(q.streakBucketID),
		StreakLength:   ptr(q.streakLength),
	}
	for _, b := range q.buckets {
		bs := BucketSnapshot{
			ID:      ptr(b.ID),
			Start:   ptr(formatTimestamp(b.Start)),
			Entries: make([]EntrySnapshot, 0, len(b.entries)),
		}
		for _, e := range b.entries {
			bs.Entries = append(bs.Entries, entryToSnapshot(e))
		}
		s.Buckets = append(s.Buckets, bs)
	}
	return s
}

// Deserialize rebuilds a queue exactly as captured. Bucket admission is
// not re-checked.
func Deserialize(s *Snapshot, opts ...Option) (*Queue, error) {
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedSnapshot, err)
	}

	q := NewQueue(opts...)
	if s.NextBucketID != nil {
		q.nextBucketID = *s.NextBucketID
	}
	if s.StreakBucketID != nil {
		q.streakBucketID = *s.StreakBucketID
	}
	if s.StreakLength != nil {
		q.streakLength = *s.StreakLength
	}

	for i, bs := range s.Buckets {
		start, err := parseTimestamp(*bs.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: bucket %d start: %v", status.ErrMalformedSnapshot, i, err)
		}
		b := NewBucket(*bs.ID, start)
		for j, es := range bs.Entries {
			entry, err := entryFromSnapshot(es)
			if err != nil {
				return nil, fmt.Errorf("%w: bucket %d entry %d: %v", status.ErrMalformedSnapshot, i, j, err)
			}
			b.Append(entry)
		}
		q.buckets = append(q.buckets, b)
	}
	return q, nil
}

// Marshal encodes the queue as indented JSON.
func Marshal(q *Queue) ([]byte, error) {
	data, err := json.MarshalIndent(Serialize(q), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a queue previously encoded with Marshal.
func Unmarshal(data []byte, opts ...Option) (*Queue, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedSnapshot, err)
	}
	return Deserialize(&s, opts...)
}

func entryToSnapshot(e models.Entry) EntrySnapshot {
	return EntrySnapshot{
		Title:       ptr(e.Title),
		Artist:      e.Artist,
		SubmittedBy: e.ContributorID,
		SubmittedOn: ptr(formatTimestamp(e.SubmittedAt)),
		ChosenOn:    formatTimestamp(e.SelectedAt),
		Date:        e.ReleaseDate,
		Image:       e.ArtworkRef,
	}
}

func entryFromSnapshot(es EntrySnapshot) (models.Entry, error) {
	submittedAt, err := parseTimestamp(*es.SubmittedOn)
	if err != nil {
		return models.Entry{}, fmt.Errorf("submitted_on: %w", err)
	}

	var selectedAt time.Time
	if es.ChosenOn != "" {
		if selectedAt, err = parseTimestamp(es.ChosenOn); err != nil {
			return models.Entry{}, fmt.Errorf("chosen_on: %w", err)
		}
	}

	return models.Entry{
		Title:         *es.Title,
		Artist:        es.Artist,
		ContributorID: es.SubmittedBy,
		SubmittedAt:   submittedAt,
		SelectedAt:    selectedAt,
		ReleaseDate:   es.Date,
		ArtworkRef:    es.Image,
	}, nil
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func ptr[T any](v T) *T {
	return &v
}

package selector

import (
	"slices"
	"time"

	"album-rotation/models"
)

// BucketWindow is the admission radius around a bucket's start time.
const BucketWindow = 16 * time.Hour

// Bucket groups entries submitted within BucketWindow of its start time.
type Bucket struct {
	ID      int
	Start   time.Time
	entries []models.Entry
}

func NewBucket(id int, start time.Time) *Bucket {
	return &Bucket{ID: id, Start: start}
}

// Admits reports whether entry falls inside the bucket's window.
func (b *Bucket) Admits(entry models.Entry) bool {
	d := entry.SubmittedAt.Sub(b.Start)
	if d < 0 {
		d = -d
	}
	return d < BucketWindow
}

// Append adds entry without an admission check; callers use Admits first.
func (b *Bucket) Append(entry models.Entry) {
	b.entries = append(b.entries, entry)
}

func (b *Bucket) Size() int {
	return len(b.entries)
}

// Entries returns a copy of the bucket contents in insertion order.
func (b *Bucket) Entries() []models.Entry {
	return slices.Clone(b.entries)
}

func (b *Bucket) Equal(other *Bucket) bool {
	if b.ID != other.ID || !b.Start.Equal(other.Start) {
		return false
	}
	return slices.EqualFunc(b.entries, other.entries, models.Entry.Equal)
}

func (b *Bucket) removeAt(i int) models.Entry {
	entry := b.entries[i]
	b.entries = slices.Delete(b.entries, i, i+1)
	return entry
}

func (b *Bucket) info() models.BucketInfo {
	return models.BucketInfo{ID: b.ID, Start: b.Start, Size: len(b.entries)}
}

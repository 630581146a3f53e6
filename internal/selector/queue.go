package selector

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"album-rotation/models"
)

const (
	// MaxEligibleBuckets caps selection to the oldest buckets by creation order.
	MaxEligibleBuckets = 6

	noStreak = -1
)

// Queue holds submissions in time buckets and picks one at a time with
// odds that favor older, larger buckets and penalize repeat picks.
// A Queue is not safe for concurrent use.
type Queue struct {
	buckets        []*Bucket
	nextBucketID   int
	streakBucketID int
	streakLength   int

	rng Source
	now func() time.Time
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		nextBucketID:   1,
		streakBucketID: noStreak,
		rng:            globalSource{},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue routes entry to the first bucket that admits it, creating a new
// bucket at the end when none does.
func (q *Queue) Enqueue(entry models.Entry) {
	slog.Debug("Adding entry", "title", entry.Title)

	for _, b := range q.buckets {
		if b.Admits(entry) {
			b.Append(entry)
			return
		}
	}

	b := NewBucket(q.nextBucketID, entry.SubmittedAt)
	q.nextBucketID++
	b.Append(entry)
	q.buckets = append(q.buckets, b)
}

func (q *Queue) TotalPending() int {
	total := 0
	for _, b := range q.buckets {
		total += b.Size()
	}
	return total
}

// SelectNext removes and returns one entry, stamping its SelectedAt.
// It reports false when the queue is empty.
func (q *Queue) SelectNext() (models.Entry, bool) {
	if q.TotalPending() == 0 {
		return models.Entry{}, false
	}

	idx := q.selectBucketIndex()
	b := q.buckets[idx]

	entry := b.removeAt(q.rng.IntN(b.Size()))
	if b.Size() == 0 {
		q.buckets = slices.Delete(q.buckets, idx, idx+1)
	}

	entry.SelectedAt = q.now()
	return entry, true
}

// Odds returns the probability of each eligible bucket being picked by the
// next selection, oldest first. It does not change any state.
func (q *Queue) Odds() []float64 {
	return normalize(q.relativeOdds())
}

// Buckets returns a read-only view of the buckets in creation order.
func (q *Queue) Buckets() []models.BucketInfo {
	infos := make([]models.BucketInfo, len(q.buckets))
	for i, b := range q.buckets {
		infos[i] = b.info()
	}
	return infos
}

// Streak returns the id of the most recently picked bucket (-1 for none)
// and how many consecutive picks landed on it.
func (q *Queue) Streak() (bucketID, length int) {
	return q.streakBucketID, q.streakLength
}

func (q *Queue) NextBucketID() int {
	return q.nextBucketID
}

func (q *Queue) Equal(other *Queue) bool {
	return q.nextBucketID == other.nextBucketID &&
		q.streakBucketID == other.streakBucketID &&
		q.streakLength == other.streakLength &&
		slices.EqualFunc(q.buckets, other.buckets, (*Bucket).Equal)
}

// relativeOdds compounds bucket weights backwards from the newest eligible
// bucket, which always has weight 1.
func (q *Queue) relativeOdds() []float64 {
	n := min(len(q.buckets), MaxEligibleBuckets)
	odds := make([]float64, n)
	if n == 0 {
		return odds
	}

	odds[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		b := q.buckets[i]
		mult := float64(b.Size() + 1)
		if b.ID == q.streakBucketID {
			mult -= float64(q.streakLength)
			if mult < 1 {
				mult = math.Pow(2, mult)
			}
		}
		odds[i] = mult * odds[i+1]
	}
	return odds
}

func (q *Queue) selectBucketIndex() int {
	probabilities := q.Odds()
	slog.Debug("Bucket selection probabilities", "probabilities", probabilities)

	r := q.rng.Float64()
	slog.Debug("Bucket selection random value", "value", r)

	idx := 0
	for ; idx < len(probabilities); idx++ {
		if r < probabilities[idx] {
			q.recordPick(q.buckets[idx].ID)
			return idx
		}
		r -= probabilities[idx]
	}

	// Only reachable through float rounding. The streak is charged to the
	// first bucket while the last visited index is returned.
	idx--
	q.recordPick(q.buckets[0].ID)
	return idx
}

func (q *Queue) recordPick(bucketID int) {
	if bucketID == q.streakBucketID {
		q.streakLength++
		return
	}
	q.streakBucketID = bucketID
	q.streakLength = 1
}

func normalize(odds []float64) []float64 {
	var total float64
	for _, o := range odds {
		total += o
	}
	probabilities := make([]float64, len(odds))
	for i, o := range odds {
		probabilities[i] = o / total
	}
	return probabilities
}

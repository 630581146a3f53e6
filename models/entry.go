package models

import (
	"time"
)

// Entry is one album submission waiting in (or selected from) the queue.
type Entry struct {
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	ContributorID string    `json:"contributor_id"` // hashed submitter address
	SubmittedAt   time.Time `json:"submitted_at"`
	SelectedAt    time.Time `json:"selected_at"` // zero until selected

	// Filled in by downstream enrichment after selection.
	ReleaseDate string `json:"release_date"`
	ArtworkRef  string `json:"artwork_ref"`
}

// Equal reports whether two entries describe the same submission.
// Selection-time fields are not compared.
func (e Entry) Equal(other Entry) bool {
	return e.Title == other.Title &&
		e.ContributorID == other.ContributorID &&
		e.SubmittedAt.Equal(other.SubmittedAt)
}

func (e Entry) IsSelected() bool {
	return !e.SelectedAt.IsZero()
}

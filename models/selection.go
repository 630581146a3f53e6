package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BucketInfo is a read-only view of one queue bucket.
type BucketInfo struct {
	ID    int       `json:"id"`
	Start time.Time `json:"start"`
	Size  int       `json:"size"`
}

type QueueOverview struct {
	Pending int          `json:"pending"`
	Buckets []BucketInfo `json:"buckets"`
}

// SelectionRecord is a selected entry as stored in the history collection.
type SelectionRecord struct {
	ID string `json:"id"`
	Entry
}

type SelectionPage struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalItems int64             `json:"total_items"`
	Items      []SelectionRecord `json:"items"`
}

// BucketOdds pairs a bucket with its chance of being picked next.
// Buckets outside the eligible window report zero odds.
type BucketOdds struct {
	BucketInfo
	Odds decimal.Decimal `json:"odds"`
}

type QueueDetails struct {
	Pending        int          `json:"pending"`
	Buckets        []BucketOdds `json:"buckets"`
	StreakBucketID int          `json:"streak_bucket_id"`
	StreakLength   int          `json:"streak_length"`
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"album-rotation/internal/status"
	"album-rotation/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const (
	SelectionsCollection = "selections"

	maxPerPage = 100
)

// HistoryService stores selected entries in the selections collection.
type HistoryService struct {
	app             core.App
	defaultPageSize int
}

func NewHistoryService(app core.App, defaultPageSize int) *HistoryService {
	if defaultPageSize < 1 || defaultPageSize > maxPerPage {
		defaultPageSize = 20
	}
	return &HistoryService{app: app, defaultPageSize: defaultPageSize}
}

func (h *HistoryService) Record(ctx context.Context, entry models.Entry) error {
	collection, err := h.app.FindCachedCollectionByNameOrId(SelectionsCollection)
	if err != nil {
		return fmt.Errorf("find %s collection: %w", SelectionsCollection, err)
	}

	record := core.NewRecord(collection)
	record.Set("title", entry.Title)
	record.Set("artist", entry.Artist)
	record.Set("contributor_id", entry.ContributorID)
	record.Set("submitted_at", entry.SubmittedAt)
	record.Set("selected_at", entry.SelectedAt)
	record.Set("release_date", entry.ReleaseDate)
	record.Set("artwork_ref", entry.ArtworkRef)

	if err := h.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// Current returns the most recent selection or status.ErrNoSelection.
func (h *HistoryService) Current(ctx context.Context) (*models.SelectionRecord, error) {
	record := &core.Record{}
	err := h.app.RecordQuery(SelectionsCollection).
		WithContext(ctx).
		AndWhere(dbx.NewExp("selected_at != ''")).
		OrderBy("selected_at DESC", "created DESC").
		Limit(1).
		One(record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNoSelection
	}
	if err != nil {
		return nil, fmt.Errorf("query current selection: %w", err)
	}

	selection := toSelectionRecord(record)
	return &selection, nil
}

// List pages through selections, newest first. Page numbers start at 1.
func (h *HistoryService) List(ctx context.Context, page, perPage int) (models.SelectionPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = h.defaultPageSize
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	total, err := h.app.CountRecords(SelectionsCollection)
	if err != nil {
		return models.SelectionPage{}, fmt.Errorf("count selections: %w", err)
	}

	records := []*core.Record{}
	err = h.app.RecordQuery(SelectionsCollection).
		WithContext(ctx).
		OrderBy("selected_at DESC", "created DESC").
		Limit(int64(perPage)).
		Offset(int64((page - 1) * perPage)).
		All(&records)
	if err != nil {
		return models.SelectionPage{}, fmt.Errorf("query selections: %w", err)
	}

	items := make([]models.SelectionRecord, 0, len(records))
	for _, r := range records {
		items = append(items, toSelectionRecord(r))
	}

	return models.SelectionPage{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		Items:      items,
	}, nil
}

func toSelectionRecord(r *core.Record) models.SelectionRecord {
	return models.SelectionRecord{
		ID: r.Id,
		Entry: models.Entry{
			Title:         r.GetString("title"),
			Artist:        r.GetString("artist"),
			ContributorID: r.GetString("contributor_id"),
			SubmittedAt:   r.GetDateTime("submitted_at").Time(),
			SelectedAt:    r.GetDateTime("selected_at").Time(),
			ReleaseDate:   r.GetString("release_date"),
			ArtworkRef:    r.GetString("artwork_ref"),
		},
	}
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"album-rotation/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type HistoryService interface {
	Current(ctx context.Context) (*models.SelectionRecord, error)
	List(ctx context.Context, page, perPage int) (models.SelectionPage, error)
}

type HistoryHandler struct {
	history HistoryService
}

func NewHistoryHandler(history HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) Current(e *core.RequestEvent) error {
	current, err := h.history.Current(e.Request.Context())
	if err != nil {
		return toApiError(err, "load current selection")
	}
	return e.JSON(http.StatusOK, current)
}

// List returns past selections, newest first. Missing paging parameters
// fall back to the first page and the configured page size.
func (h *HistoryHandler) List(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	page, err := intParam(query.Get("page"))
	if err != nil {
		return apis.NewBadRequestError("Invalid page", err)
	}
	perPage, err := intParam(query.Get("per_page"))
	if err != nil {
		return apis.NewBadRequestError("Invalid per_page", err)
	}

	result, err := h.history.List(e.Request.Context(), page, perPage)
	if err != nil {
		return toApiError(err, "list selections")
	}
	return e.JSON(http.StatusOK, result)
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

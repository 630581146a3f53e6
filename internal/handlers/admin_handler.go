package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
)

// AdminHandler serves superuser-only queue operations. Routes using it
// must be bound with apis.RequireSuperuserAuth.
type AdminHandler struct {
	queueService QueueService
}

func NewAdminHandler(queueService QueueService) *AdminHandler {
	return &AdminHandler{queueService: queueService}
}

// SelectNext draws the next album immediately. "selected" is null when the
// queue is empty.
func (h *AdminHandler) SelectNext(e *core.RequestEvent) error {
	entry, err := h.queueService.SelectNext(e.Request.Context())
	if err != nil {
		return toApiError(err, "select next album")
	}
	return e.JSON(http.StatusOK, map[string]any{"selected": entry})
}

// QueueDetails reports every bucket with its current odds and the streak.
func (h *AdminHandler) QueueDetails(e *core.RequestEvent) error {
	details, err := h.queueService.Details(e.Request.Context())
	if err != nil {
		return toApiError(err, "load queue details")
	}
	return e.JSON(http.StatusOK, details)
}

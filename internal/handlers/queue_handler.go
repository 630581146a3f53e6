package handlers

import (
	"context"
	"net/http"

	"album-rotation/models"
	"album-rotation/utils"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type QueueService interface {
	Submit(ctx context.Context, title, artist, contributorID string) (models.Entry, error)
	SelectNext(ctx context.Context) (*models.Entry, error)
	Overview(ctx context.Context) (models.QueueOverview, error)
	Details(ctx context.Context) (models.QueueDetails, error)
}

type QueueHandler struct {
	queueService QueueService
}

func NewQueueHandler(queueService QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

type submitRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Submit adds an album to the queue on behalf of the caller.
func (h *QueueHandler) Submit(e *core.RequestEvent) error {
	var req submitRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	contributorID := utils.ContributorID(e.Request.Header.Get("X-Forwarded-For"), e.Request.RemoteAddr)

	entry, err := h.queueService.Submit(e.Request.Context(), req.Title, req.Artist, contributorID)
	if err != nil {
		return toApiError(err, "submit album")
	}

	return e.JSON(http.StatusCreated, entry)
}

func (h *QueueHandler) Overview(e *core.RequestEvent) error {
	overview, err := h.queueService.Overview(e.Request.Context())
	if err != nil {
		return toApiError(err, "load queue")
	}
	return e.JSON(http.StatusOK, overview)
}

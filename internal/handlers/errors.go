package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"album-rotation/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// toApiError maps service errors to HTTP errors.
func toApiError(err error, action string) error {
	switch {
	case errors.Is(err, status.ErrEmptyTitle):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrNoSelection):
		return apis.NewNotFoundError("No album has been selected yet", nil)
	case errors.Is(err, status.ErrLockTimeout):
		return apis.NewApiError(http.StatusServiceUnavailable, "Queue is busy, try again", nil)
	}

	slog.Error("Request failed", "action", action, "error", err)
	return apis.NewInternalServerError("Failed to "+action, nil)
}

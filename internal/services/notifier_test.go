package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"album-rotation/internal/status"
	"album-rotation/models"
	"album-rotation/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	channel string
	message map[string]any
}

func testBreakerSettings() utils.BreakerSettings {
	return utils.BreakerSettings{
		MaxRequests:  5,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.6,
	}
}

func TestPubNubNotifier_Publishes(t *testing.T) {
	var calls []publishCall
	n := newNotifier("album-selection", func(channel string, message map[string]any) error {
		calls = append(calls, publishCall{channel, message})
		return nil
	}, testBreakerSettings())

	entry := models.Entry{
		Title:      "Blue",
		Artist:     "Joni Mitchell",
		SelectedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.NotifySelection(context.Background(), entry))

	require.Len(t, calls, 1)
	assert.Equal(t, "album-selection", calls[0].channel)

	id, ok := calls[0].message["id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36)
	delete(calls[0].message, "id")

	assert.Equal(t, map[string]any{
		"type":        "selection",
		"title":       "Blue",
		"artist":      "Joni Mitchell",
		"selected_at": "2025-03-01T09:00:00Z",
	}, calls[0].message)
}

func TestPubNubNotifier_OpensCircuitAfterFailures(t *testing.T) {
	attempts := 0
	n := newNotifier("album-selection", func(string, map[string]any) error {
		attempts++
		return errors.New("publish timeout")
	}, testBreakerSettings())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := n.NotifySelection(ctx, models.Entry{Title: "A"})
		assert.ErrorContains(t, err, "publish timeout")
	}

	err := n.NotifySelection(ctx, models.Entry{Title: "A"})

	assert.ErrorIs(t, err, status.ErrCircuitOpen)
	assert.Equal(t, 5, attempts)
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"album-rotation/models"
	"album-rotation/utils"

	"github.com/google/uuid"
	pubnub "github.com/pubnub/go"
)

type publishFunc func(channel string, message map[string]any) error

// PubNubNotifier publishes each selection on a channel through a circuit
// breaker.
type PubNubNotifier struct {
	channel string
	publish publishFunc
	breaker *utils.CircuitBreaker
}

func NewPubNubNotifier(pn *pubnub.PubNub, channel string) *PubNubNotifier {
	return newNotifier(channel, func(channel string, message map[string]any) error {
		_, _, err := pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return err
	}, utils.DefaultBreakerSettings())
}

func newNotifier(channel string, publish publishFunc, settings utils.BreakerSettings) *PubNubNotifier {
	return &PubNubNotifier{
		channel: channel,
		publish: publish,
		breaker: utils.NewCircuitBreaker("pubnub", settings),
	}
}

func (n *PubNubNotifier) NotifySelection(ctx context.Context, entry models.Entry) error {
	// id lets subscribers drop duplicate deliveries
	message := map[string]any{
		"id":          uuid.NewString(),
		"type":        "selection",
		"title":       entry.Title,
		"artist":      entry.Artist,
		"selected_at": entry.SelectedAt.Format(time.RFC3339),
	}

	_, err := n.breaker.Execute(ctx, func() (any, error) {
		return nil, n.publish(n.channel, message)
	})
	if err != nil {
		return fmt.Errorf("publish selection: %w", err)
	}

	slog.Debug("Selection published", "channel", n.channel, "title", entry.Title)
	return nil
}

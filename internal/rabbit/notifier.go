package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ryanparsons7/calendly-notion/internal/syncer"
)

type Publisher interface {
	Publish(body []byte) error
}

// Notifier publishes engine notifications as JSON messages.
type Notifier struct {
	publisher Publisher
}

func NewNotifier(p Publisher) *Notifier {
	return &Notifier{publisher: p}
}

func (n *Notifier) Notify(ctx context.Context, notification syncer.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := n.publisher.Publish(data); err != nil {
		return fmt.Errorf("failed to publish notification of %q: %w", notification.EventID, err)
	}
	return nil
}

package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
)

const defaultPublishTimeout = 5 * time.Second

type pushPayload struct {
	ID        string          `json:"id"`
	MemberID  string          `json:"memberId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Context   json.RawMessage `json:"context,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PubSubPublisher pushes stored notifications to a Pub/Sub topic.
type PubSubPublisher struct {
	publisher *gcppubsub.Publisher
	timeout   time.Duration
}

// NewPubSubPublisher returns nil when no topic publisher is available.
func NewPubSubPublisher(p *gcppubsub.Publisher) *PubSubPublisher {
	if p == nil {
		return nil
	}
	return &PubSubPublisher{publisher: p, timeout: defaultPublishTimeout}
}

func (p *PubSubPublisher) Publish(ctx context.Context, n *models.Notification) error {
	if p == nil || p.publisher == nil {
		return errors.New("pubsub publisher not configured")
	}
	msg, err := buildMessage(n)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if _, err := p.publisher.Publish(publishCtx, msg).Get(publishCtx); err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	return nil
}

func buildMessage(n *models.Notification) (*gcppubsub.Message, error) {
	data, err := json.Marshal(pushPayload{
		ID:        n.ID.String(),
		MemberID:  n.MemberID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Context:   n.Context,
		CreatedAt: n.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	return &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type":      string(n.Type),
			"member_id":       n.MemberID.String(),
			"notification_id": n.ID.String(),
		},
	}, nil
}

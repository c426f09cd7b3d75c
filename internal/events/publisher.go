package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/creatorhub-platform/creatorhub/internal/usage"
)

const (
	SubjectUsageIncremented = "creatorhub.usage.incremented"
	SubjectLimitReached     = "creatorhub.usage.limit_reached"
	SubjectWindowReset      = "creatorhub.usage.window_reset"
)

// UsageEvent is the payload published for every usage notification.
type UsageEvent struct {
	UserID  uuid.UUID     `json:"user_id"`
	Feature usage.Feature `json:"feature,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	At      time.Time     `json:"at"`
}

// Publisher emits usage events to JetStream. Publishing is best effort:
// failures are logged, never surfaced to the request that triggered them.
type Publisher struct {
	js jetstream.JetStream
}

func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

func (p *Publisher) UsageIncremented(ctx context.Context, userID uuid.UUID, feature usage.Feature) {
	p.publish(ctx, SubjectUsageIncremented, UsageEvent{
		UserID:  userID,
		Feature: feature,
		At:      time.Now().UTC(),
	})
}

func (p *Publisher) LimitReached(ctx context.Context, userID uuid.UUID, feature usage.Feature, limit int) {
	p.publish(ctx, SubjectLimitReached, UsageEvent{
		UserID:  userID,
		Feature: feature,
		Limit:   limit,
		At:      time.Now().UTC(),
	})
}

func (p *Publisher) WindowReset(ctx context.Context, userID uuid.UUID) {
	p.publish(ctx, SubjectWindowReset, UsageEvent{
		UserID: userID,
		At:     time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, event UsageEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("marshaling usage event", "error", err, "subject", subject)
		return
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		slog.Warn("publishing usage event", "error", err, "subject", subject)
	}
}

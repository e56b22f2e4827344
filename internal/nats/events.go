package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/treegpt/treegpt/internal/model"
)

const (
	// StreamName is the name of the branch events stream.
	StreamName = "TREEGPT_EVENTS"

	// SubjectPrefix is the prefix for all branch event subjects.
	SubjectPrefix = "tree"
)

// Publisher publishes branch lifecycle events to JetStream. A nil
// Publisher is valid and drops events, so the server runs without a
// broker.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher on an established connection.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the events stream exists with proper configuration.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Branch lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for a branch event.
func EventSubject(conversationID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, conversationID, eventType)
}

// Publish publishes a branch event. Failures are logged, not returned:
// event fan-out is best-effort and never blocks the request path.
func (p *Publisher) Publish(ctx context.Context, event *model.BranchEvent) {
	if p == nil || p.client == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.client.logger.Error("failed to marshal branch event", zap.Error(err))
		return
	}

	subject := EventSubject(event.ConversationID, event.Type)
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		p.client.logger.Warn("failed to publish branch event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

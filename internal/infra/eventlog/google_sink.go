package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"puffsocial/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// googlePubSubSink implements EventSink using Google Cloud Pub/Sub
type googlePubSubSink struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewGooglePubSubSink creates a new Google Pub/Sub event sink
func NewGooglePubSubSink(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventSink, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Check if topic exists using TopicAdminClient
	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err = client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
		Topic: topicPath,
	})
	if err != nil {
		client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	publisher := client.Publisher(topicID)

	logger.Info("Google Pub/Sub event sink initialized",
		slog.String("project_id", projectID),
		slog.String("topic_id", topicID),
	)

	return &googlePubSubSink{
		client:    client,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// PublishEvent publishes an event to Google Pub/Sub
func (p *googlePubSubSink) PublishEvent(ctx context.Context, event *service.AuditEvent) error {
	// Serialize the event to JSON
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	// Attributes allow subscribers to filter by event type and channel
	attributes := map[string]string{
		"type":    strconv.Itoa(int(event.Type)),
		"channel": event.Channel,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	msg := &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	}

	// Publish message and wait for the server ack
	result := p.publisher.Publish(ctx, msg)

	serverID, err := result.Get(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	p.logger.Debug("[EventLog] Event published",
		slog.Int("type", int(event.Type)),
		slog.String("server_id", serverID),
	)

	return nil
}

// Close releases Pub/Sub client resources
func (p *googlePubSubSink) Close() error {
	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.client != nil {
		return errors.WithStack(p.client.Close())
	}

	return nil
}

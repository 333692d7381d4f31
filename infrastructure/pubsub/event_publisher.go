package pubsub

import (
	"context"
	"encoding/json"
	"strconv"

	"omnicast/domain/model"
	"omnicast/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

type publishFunc func(ctx context.Context, data []byte, attrs map[string]string) (string, error)

// EventPublisher sends terminal delivery events to a Pub/Sub topic.
type EventPublisher struct {
	publish publishFunc
}

// NewEventPublisher resolves the topic, creating it when it does not exist.
func NewEventPublisher(ctx context.Context, client *pubsub.Client, topicName string) (*EventPublisher, error) {
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		if topic, err = client.CreateTopic(ctx, topicName); err != nil {
			return nil, err
		}
	}
	return &EventPublisher{publish: func(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
		return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	}}, nil
}

func (p *EventPublisher) Name() string { return "pubsub" }

func (p *EventPublisher) Observe(ctx context.Context, event model.DeliveryEvent) error {
	if !event.Terminal() {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	serverID, err := p.publish(ctx, data, map[string]string{
		"status":    event.Status,
		"upload_id": strconv.FormatInt(event.UploadID, 10),
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).WithField("server_id", serverID).WithField("upload_platform_id", event.UploadPlatformID).Debug("delivery event published")
	return nil
}

package servicebus

import (
	"context"
	"encoding/json"

	"omnicast/domain/model"
	"omnicast/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

type sendFunc func(ctx context.Context, msg *azservicebus.Message) error

// EventSender puts terminal delivery events on a Service Bus queue.
type EventSender struct {
	send  sendFunc
	close func(ctx context.Context) error
}

func NewEventSender(client *azservicebus.Client, queue string) (*EventSender, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return nil, err
	}
	return &EventSender{
		send: func(ctx context.Context, msg *azservicebus.Message) error {
			return sender.SendMessage(ctx, msg, nil)
		},
		close: sender.Close,
	}, nil
}

func (s *EventSender) Name() string { return "servicebus" }

func (s *EventSender) Observe(ctx context.Context, event model.DeliveryEvent) error {
	if !event.Terminal() {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	contentType := "application/json"
	subject := event.Status
	if err := s.send(ctx, &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
	}); err != nil {
		logger.FromContext(ctx).WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (s *EventSender) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

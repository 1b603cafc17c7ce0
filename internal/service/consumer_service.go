package service

import (
	"context"
	"encoding/json"

	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	FrameCheckpoint = "checkpoint"
	FrameCompleted  = "completed"
)

// HubDelivery is the part of the websocket hub the consumer needs.
type HubDelivery interface {
	SendToCase(caseId uuid.UUID, frameType string, data interface{})
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	hub        HubDelivery
	relay      events.Sink
	logger     logger.ILogger
}

// NewConsumerService forwards bus events to live case watchers. relay may
// be nil; when set, completed runs are also handed to it.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	hub HubDelivery,
	relay events.Sink,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		hub:        hub,
		relay:      relay,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("Events", "Failed to unmarshal bus message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	caseId, err := uuid.Parse(event.CaseId())
	if err != nil {
		cs.logger.Warn("Events", "Event without a valid case id", map[string]interface{}{
			"type":    event.Type,
			"case_id": event.CaseId(),
		})
		msg.Ack()
		return
	}

	switch event.Type {
	case events.TypeCaseCheckpointed:
		cs.hub.SendToCase(caseId, FrameCheckpoint, event.Data)
	case events.TypeCaseCompleted:
		cs.hub.SendToCase(caseId, FrameCompleted, event.Data)
		if cs.relay != nil {
			if err := cs.relay.Publish(ctx, event); err != nil {
				cs.logger.Warn("Events", "Failed to relay completed case", map[string]interface{}{
					"case_id": caseId.String(),
					"error":   err.Error(),
				})
			}
		}
	default:
		cs.logger.Debug("Events", "Ignoring event type", map[string]interface{}{"type": event.Type})
	}

	msg.Ack()
}

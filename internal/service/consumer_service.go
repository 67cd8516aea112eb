// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"hana-assistant-be/internal/dto"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// SurfaceDelivery pushes an encoded frame to the sockets of a surface.
type SurfaceDelivery interface {
	SendToSurface(surfaceID uuid.UUID, data []byte) bool
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  SurfaceDelivery
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery SurfaceDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		logger:    log,
	}
}

// Consume forwards surface events to their sockets until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	for msg := range messages {
		cs.processMessage(msg)
	}
	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Invalid messages are acked so they are not redelivered forever.
	defer msg.Ack()

	var payload dto.SurfaceEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal surface event", map[string]interface{}{"error": err})
		return
	}

	frame, err := json.Marshal(websocket.Frame{Type: payload.Type, Data: payload.Data})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to encode frame", map[string]interface{}{"error": err})
		return
	}

	cs.delivery.SendToSurface(payload.SurfaceId, frame)
}

// Package bridge connects the message router to an MQTT broker.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqttcommon "catat-worker/internal/common/mqtt"
	"catat-worker/internal/models"
)

// handleTimeout upper bound for one message, classification calls included
const handleTimeout = 2 * time.Minute

// Processor the message router behind every transport
type Processor interface {
	Handle(ctx context.Context, msg models.InboundMessage) (models.OutboundReply, bool)
}

// PubSub the broker operations the bridge needs; *mqttcommon.Client implements it
type PubSub interface {
	QoS() byte
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

var _ PubSub = (*mqttcommon.Client)(nil)

// MQTTBridge subscribes to the inbound topic and publishes each reply to the outbound topic
type MQTTBridge struct {
	client        PubSub
	processor     Processor
	inboundTopic  string
	outboundTopic string
	logger        *zap.Logger
	ctx           context.Context
}

func NewMQTTBridge(client PubSub, processor Processor, inboundTopic, outboundTopic string, logger *zap.Logger) *MQTTBridge {
	return &MQTTBridge{
		client:        client,
		processor:     processor,
		inboundTopic:  inboundTopic,
		outboundTopic: outboundTopic,
		logger:        logger,
		ctx:           context.Background(),
	}
}

// Start subscribes and blocks until ctx is cancelled
func (b *MQTTBridge) Start(ctx context.Context) error {
	b.ctx = ctx
	if err := b.client.Subscribe(b.inboundTopic, b.client.QoS(), b.handleMessage); err != nil {
		return err
	}
	b.logger.Info("MQTT bridge started",
		zap.String("inbound_topic", b.inboundTopic),
		zap.String("outbound_topic", b.outboundTopic),
	)
	<-ctx.Done()
	return nil
}

func (b *MQTTBridge) handleMessage(topic string, payload []byte) error {
	var in models.InboundMessage
	if err := json.Unmarshal(payload, &in); err != nil {
		return fmt.Errorf("failed to decode message on %s: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(b.ctx, handleTimeout)
	defer cancel()
	reply, ok := b.processor.Handle(ctx, in)
	if !ok {
		return nil
	}

	raw, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}
	return b.client.Publish(b.outboundTopic, b.client.QoS(), false, raw)
}

package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "catat-worker/internal/common/redis"
	"catat-worker/internal/models"
)

// Processor the message router behind every transport
type Processor interface {
	Handle(ctx context.Context, msg models.InboundMessage) (models.OutboundReply, bool)
}

// MessageConsumer reads inbound chat messages from a Redis stream and publishes one reply per message
type MessageConsumer struct {
	redisClient  *redis.Client
	processor    Processor
	logger       *zap.Logger
	stream       string
	outbound     string
	groupName    string
	consumerName string
	batchSize    int64
	block        time.Duration

	// replies computed for acked entries whose publish failed; flushed before the next read
	unsent []models.OutboundReply
}

func NewMessageConsumer(
	redisClient *redis.Client,
	processor Processor,
	logger *zap.Logger,
	stream string,
	outbound string,
	groupName string,
	consumerName string,
	batchSize int64,
) *MessageConsumer {
	return &MessageConsumer{
		redisClient:  redisClient,
		processor:    processor,
		logger:       logger,
		stream:       stream,
		outbound:     outbound,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
		block:        5 * time.Second,
	}
}

// Start consumes until ctx is cancelled, backing off exponentially on read failures
func (c *MessageConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Message consumer started",
		zap.String("stream", c.stream),
		zap.String("outbound", c.outbound),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeMessages(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("Failed to consume messages",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

func (c *MessageConsumer) consumeMessages(ctx context.Context) error {
	if err := c.flushUnsent(ctx); err != nil {
		return err
	}

	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, c.stream, c.groupName, c.consumerName, c.batchSize, c.block)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		c.processMessage(ctx, msg)
		// Handle has already written to the ledger, so the entry is never redelivered
		if err := rediscommon.Ack(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("stream_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	if len(c.unsent) > 0 {
		return fmt.Errorf("%d replies not published", len(c.unsent))
	}
	return nil
}

// flushUnsent republishes queued replies in order; new entries are not read while any remain
func (c *MessageConsumer) flushUnsent(ctx context.Context) error {
	for len(c.unsent) > 0 {
		if _, err := rediscommon.PublishJSONToStream(ctx, c.redisClient, c.outbound, c.unsent[0]); err != nil {
			return fmt.Errorf("failed to republish reply %s: %w", c.unsent[0].ID, err)
		}
		c.logger.Info("Republished reply", zap.String("message_id", c.unsent[0].ID))
		c.unsent = c.unsent[1:]
	}
	return nil
}

// processMessage a payload that cannot be decoded is dropped; a reply that cannot be published is queued
func (c *MessageConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) {
	data, ok := msg.Data()
	if !ok {
		c.logger.Warn("Dropping stream entry without data field", zap.String("stream_id", msg.ID))
		return
	}
	var in models.InboundMessage
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		c.logger.Warn("Dropping undecodable stream entry", zap.String("stream_id", msg.ID), zap.Error(err))
		return
	}
	if in.ID == "" {
		in.ID = msg.ID
	}

	reply, ok := c.processor.Handle(ctx, in)
	if !ok {
		return
	}
	if len(c.unsent) == 0 {
		_, err := rediscommon.PublishJSONToStream(ctx, c.redisClient, c.outbound, reply)
		if err == nil {
			return
		}
		c.logger.Error("Failed to publish reply, queued for retry",
			zap.String("stream_id", msg.ID),
			zap.Error(err),
		)
	}
	c.unsent = append(c.unsent, reply)
}

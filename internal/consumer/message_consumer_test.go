package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rediscommon "catat-worker/internal/common/redis"
	"catat-worker/internal/models"
)

type echoProcessor struct {
	mu   sync.Mutex
	seen []models.InboundMessage
}

func (p *echoProcessor) Handle(_ context.Context, msg models.InboundMessage) (models.OutboundReply, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, msg)
	if msg.FromMe {
		return models.OutboundReply{}, false
	}
	return models.OutboundReply{ID: msg.ID, To: msg.From, Reply: "echo: " + msg.Text}, true
}

func setup(t *testing.T) (*redis.Client, *MessageConsumer, *echoProcessor) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := &echoProcessor{}
	c := NewMessageConsumer(client, p, zap.NewNop(), "catat:inbound", "catat:outbound", "g", "c1", 10)
	c.block = 10 * time.Millisecond
	require.NoError(t, rediscommon.CreateConsumerGroup(context.Background(), client, "catat:inbound", "g"))
	return client, c, p
}

func TestConsumeMessages_PublishesOneReplyPerMessage(t *testing.T) {
	client, c, p := setup(t)
	ctx := context.Background()

	_, err := rediscommon.PublishJSONToStream(ctx, client, "catat:inbound", models.InboundMessage{ID: "m1", From: "6281111111111", Text: "halo"})
	require.NoError(t, err)
	_, err = rediscommon.PublishJSONToStream(ctx, client, "catat:inbound", models.InboundMessage{From: "6281111111111", Text: "self", FromMe: true})
	require.NoError(t, err)
	_, err = client.XAdd(ctx, &redis.XAddArgs{Stream: "catat:inbound", Values: map[string]interface{}{"data": "{not json"}}).Result()
	require.NoError(t, err)

	require.NoError(t, c.consumeMessages(ctx))

	assert.Len(t, p.seen, 2)
	out, err := client.XRange(ctx, "catat:outbound", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, out, 1)
	var reply models.OutboundReply
	require.NoError(t, json.Unmarshal([]byte(out[0].Values["data"].(string)), &reply))
	assert.Equal(t, models.OutboundReply{ID: "m1", To: "6281111111111", Reply: "echo: halo"}, reply)

	pending, err := client.XPending(ctx, "catat:inbound", "g").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestConsumeMessages_UsesStreamIDWhenMissing(t *testing.T) {
	client, c, p := setup(t)
	ctx := context.Background()

	id, err := rediscommon.PublishJSONToStream(ctx, client, "catat:inbound", models.InboundMessage{From: "6281111111111", Text: "x"})
	require.NoError(t, err)
	require.NoError(t, c.consumeMessages(ctx))

	require.Len(t, p.seen, 1)
	assert.Equal(t, id, p.seen[0].ID)
}

func TestConsumeMessages_RetriesReplyWhenOutboundFails(t *testing.T) {
	client, c, p := setup(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "catat:outbound", "not a stream", 0).Err())
	_, err := rediscommon.PublishJSONToStream(ctx, client, "catat:inbound", models.InboundMessage{ID: "m1", From: "6281111111111", Text: "satu"})
	require.NoError(t, err)

	require.Error(t, c.consumeMessages(ctx))
	require.Len(t, p.seen, 1)
	pending, err := client.XPending(ctx, "catat:inbound", "g").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	// reads pause while a reply is undelivered
	_, err = rediscommon.PublishJSONToStream(ctx, client, "catat:inbound", models.InboundMessage{ID: "m2", From: "6281111111111", Text: "dua"})
	require.NoError(t, err)
	require.Error(t, c.consumeMessages(ctx))
	assert.Len(t, p.seen, 1)

	require.NoError(t, client.Del(ctx, "catat:outbound").Err())
	require.NoError(t, c.consumeMessages(ctx))
	require.NoError(t, c.consumeMessages(ctx))

	assert.Len(t, p.seen, 2)
	out, err := client.XRange(ctx, "catat:outbound", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, out, 2)
	var first models.OutboundReply
	require.NoError(t, json.Unmarshal([]byte(out[0].Values["data"].(string)), &first))
	assert.Equal(t, "echo: satu", first.Reply)
}

func TestStart_StopsOnCancel(t *testing.T) {
	_, c, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

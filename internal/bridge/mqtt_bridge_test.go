package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqttcommon "catat-worker/internal/common/mqtt"
	"catat-worker/internal/models"
)

// fakeBroker delivers published payloads synchronously
type fakeBroker struct {
	mu        sync.Mutex
	handlers  map[string]mqttcommon.MessageHandler
	published map[string][][]byte
	subErr    error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: map[string]mqttcommon.MessageHandler{}, published: map[string][][]byte{}}
}

func (f *fakeBroker) QoS() byte { return 1 }

func (f *fakeBroker) Subscribe(topic string, _ byte, h mqttcommon.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return f.subErr
	}
	f.handlers[topic] = h
	return nil
}

func (f *fakeBroker) Publish(topic string, _ byte, _ bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

func (f *fakeBroker) deliver(topic string, payload []byte) error {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	return h(topic, payload)
}

func (f *fakeBroker) subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

type upperProcessor struct{}

func (upperProcessor) Handle(_ context.Context, msg models.InboundMessage) (models.OutboundReply, bool) {
	if msg.FromMe {
		return models.OutboundReply{}, false
	}
	return models.OutboundReply{ID: msg.ID, To: msg.From, Reply: "ok " + msg.Text}, true
}

func TestMQTTBridge_RoundTrip(t *testing.T) {
	broker := newFakeBroker()
	b := NewMQTTBridge(broker, upperProcessor{}, "catat/inbound", "catat/outbound", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()
	require.Eventually(t, func() bool { return broker.subscribed("catat/inbound") }, time.Second, 5*time.Millisecond)

	in, _ := json.Marshal(models.InboundMessage{ID: "1", From: "6281111111111", Text: "halo"})
	require.NoError(t, broker.deliver("catat/inbound", in))
	self, _ := json.Marshal(models.InboundMessage{ID: "2", From: "6281111111111", FromMe: true})
	require.NoError(t, broker.deliver("catat/inbound", self))
	assert.Error(t, broker.deliver("catat/inbound", []byte("{")))

	require.Len(t, broker.published["catat/outbound"], 1)
	var reply models.OutboundReply
	require.NoError(t, json.Unmarshal(broker.published["catat/outbound"][0], &reply))
	assert.Equal(t, "ok halo", reply.Reply)

	cancel()
	assert.NoError(t, <-done)
}

func TestMQTTBridge_SubscribeFailure(t *testing.T) {
	broker := newFakeBroker()
	broker.subErr = errors.New("not connected")
	b := NewMQTTBridge(broker, upperProcessor{}, "in", "out", zap.NewNop())

	assert.Error(t, b.Start(context.Background()))
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentFrame struct {
	caseId    uuid.UUID
	frameType string
	data      interface{}
}

type fakeHub struct {
	mu     sync.Mutex
	frames []sentFrame
}

func (h *fakeHub) SendToCase(caseId uuid.UUID, frameType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, sentFrame{caseId, frameType, data})
}

func (h *fakeHub) sent() []sentFrame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sentFrame(nil), h.frames...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func TestConsumer_ForwardsFramesAndRelaysCompletion(t *testing.T) {
	bus := newBus()
	defer bus.Close()

	hub := &fakeHub{}
	relay := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(bus, "case_events", hub, relay, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("case_events", bus)
	caseId := uuid.New()
	now := time.Now()

	require.NoError(t, publisher.Publish(ctx, events.NewCaseCheckpointed(caseId.String(), "extract_symptoms", now)))
	require.NoError(t, publisher.Publish(ctx, events.NewCaseCompleted(caseId.String(), "GREEN", "self-care", now)))

	require.Eventually(t, func() bool { return len(hub.sent()) == 2 }, time.Second, 10*time.Millisecond)

	frames := hub.sent()
	assert.Equal(t, caseId, frames[0].caseId)
	assert.Equal(t, FrameCheckpoint, frames[0].frameType)
	assert.Equal(t, "extract_symptoms", frames[0].data.(map[string]interface{})["stage"])
	assert.Equal(t, FrameCompleted, frames[1].frameType)

	require.Eventually(t, func() bool { return relay.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, events.TypeCaseCompleted, relay.events[0].EventType())
}

func TestConsumer_SurvivesBadMessagesAndRelayFailure(t *testing.T) {
	bus := newBus()
	defer bus.Close()

	hub := &fakeHub{}
	relay := &recordingSink{err: errors.New("nats down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, NewConsumerService(bus, "case_events", hub, relay, logger.NewNopLogger()).Consume(ctx))

	require.NoError(t, bus.Publish("case_events", message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, bus.Publish("case_events", message.NewMessage(watermill.NewUUID(), []byte(`{"type":"case.completed","data":{}}`))))

	publisher := NewPublisherService("case_events", bus)
	caseId := uuid.New()
	require.NoError(t, publisher.Publish(ctx, events.NewCaseCompleted(caseId.String(), "RED", "emergency", time.Now())))

	require.Eventually(t, func() bool { return len(hub.sent()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, caseId, hub.sent()[0].caseId)
	require.Eventually(t, func() bool { return relay.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestConsumer_NilRelay(t *testing.T) {
	bus := newBus()
	defer bus.Close()

	hub := &fakeHub{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, NewConsumerService(bus, "case_events", hub, nil, logger.NewNopLogger()).Consume(ctx))
	require.NoError(t, NewPublisherService("case_events", bus).Publish(ctx,
		events.NewCaseCompleted(uuid.NewString(), "AMBER", "referral", time.Now())))

	require.Eventually(t, func() bool { return len(hub.sent()) == 1 }, time.Second, 10*time.Millisecond)
}

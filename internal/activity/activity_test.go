package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/mq"
	"github.com/retro-admin/dashboard/types"
)

type recordingSink struct {
	mu     sync.Mutex
	events []types.ActivityEvent
	fail   int
	seen   chan struct{}
}

func newRecordingSink(fail int) *recordingSink {
	return &recordingSink{fail: fail, seen: make(chan struct{}, 16)}
}

func (s *recordingSink) RecordActivity(_ context.Context, event types.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return errors.New("backend unavailable")
	}
	s.events = append(s.events, event)
	s.seen <- struct{}{}
	return nil
}

func (s *recordingSink) recorded() []types.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ActivityEvent(nil), s.events...)
}

func TestRecorder(t *testing.T) {
	sink := newRecordingSink(0)
	r := NewRecorder(sink, zap.NewNop())
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	r.Record(context.Background(), "u1", DescLogin, "")
	r.Record(context.Background(), "", DescLogout, "")

	events := sink.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, types.ActivityEvent{
		UserID:      "u1",
		Description: DescLogin,
		Status:      types.ActivityStatusOK,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, events[0])
}

func TestRecorderSwallowsSinkErrors(t *testing.T) {
	sink := newRecordingSink(1)
	r := NewRecorder(sink, nil)

	assert.NotPanics(t, func() {
		r.Record(context.Background(), "u1", DescLogin, types.ActivityStatusWarning)
	})
	assert.Empty(t, sink.recorded())
}

func TestRecorderWithoutSinkLogs(t *testing.T) {
	r := NewRecorder(nil, zap.NewNop())
	_, ok := r.sink.(LogSink)
	assert.True(t, ok)

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.Record(context.Background(), "u1", DescLogin, "") })
}

func TestRequestGenerated(t *testing.T) {
	entry := types.RequestEntry{ID: "ABC123XYZ", Type: types.RequestUnidadeDeVida}
	assert.Equal(t, "Requisição ABC123XYZ gerada (UNIDADE DE VIDA)", RequestGenerated(entry))
}

func TestPublisherAndWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queue := mq.New(mq.NewMemoryBroker(8))
	defer queue.Close()

	_, err := queue.Publish(ctx, "activity", []byte("{not json"), nil)
	require.NoError(t, err)
	_, err = queue.PublishJSON(ctx, "activity", types.ActivityEvent{Description: "anonymous"}, nil)
	require.NoError(t, err)

	pub := NewPublisher(queue, "activity")
	require.NoError(t, pub.RecordActivity(ctx, types.ActivityEvent{UserID: "u1", Description: DescLogout}))

	sink := newRecordingSink(1)
	worker := NewWorker(queue, "activity", sink, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	select {
	case <-sink.seen:
	case <-ctx.Done():
		t.Fatal("worker did not record the event")
	}
	cancel()
	require.NoError(t, <-done)

	events := sink.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, DescLogout, events[0].Description)
}

func TestPublisherClosedQueue(t *testing.T) {
	queue := mq.New(mq.NewMemoryBroker(1))
	require.NoError(t, queue.Close())

	err := NewPublisher(queue, "activity").RecordActivity(context.Background(), types.ActivityEvent{UserID: "u1"})
	assert.ErrorIs(t, err, mq.ErrBrokerClosed)
}

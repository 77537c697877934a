package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/mq"
	"github.com/retro-admin/dashboard/types"
)

const attrUserID = "user_id"

// Publisher is an ActivitySink that enqueues events for the worker.
type Publisher struct {
	queue   *mq.MQ
	channel string
}

func NewPublisher(queue *mq.MQ, channel string) *Publisher {
	return &Publisher{queue: queue, channel: channel}
}

func (p *Publisher) RecordActivity(ctx context.Context, event types.ActivityEvent) error {
	if _, err := p.queue.PublishJSON(ctx, p.channel, event, map[string]string{attrUserID: event.UserID}); err != nil {
		return &gateway.StoreError{Op: gateway.OpRecordActivity, Err: err}
	}
	return nil
}

// Worker drains the activity channel into a backend sink.
type Worker struct {
	queue   *mq.MQ
	channel string
	sink    gateway.ActivitySink
	logger  *zap.Logger
}

func NewWorker(queue *mq.MQ, channel string, sink gateway.ActivitySink, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: queue, channel: channel, sink: sink, logger: logger}
}

// Run consumes until ctx is cancelled. Malformed messages are dropped; sink
// failures are returned to the broker so the message is redelivered.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("activity worker started", zap.String("channel", w.channel))
	err := w.queue.Subscribe(ctx, w.channel, w.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var event types.ActivityEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		w.logger.Error("drop malformed activity message", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	if event.UserID == "" {
		w.logger.Error("drop activity message without user", zap.String("message_id", msg.ID))
		return nil
	}
	if err := w.sink.RecordActivity(ctx, event); err != nil {
		w.logger.Warn("activity write failed", zap.String("message_id", msg.ID), zap.Error(err))
		return fmt.Errorf("record activity %s: %w", msg.ID, err)
	}
	return nil
}

package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

const defaultMemoryBuffer = 256

// ErrBrokerClosed is returned after Close.
var ErrBrokerClosed = errors.New("broker closed")

// MemoryBroker is an in-process broker. Every channel is a buffered queue
// shared by its subscribers; a message a handler fails on is queued again.
type MemoryBroker struct {
	mu     sync.Mutex
	buffer int
	queues map[string]chan Message
	closed chan struct{}
	once   sync.Once
}

// NewMemoryBroker returns a broker whose channels hold up to buffer messages.
func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	return &MemoryBroker{
		buffer: buffer,
		queues: make(map[string]chan Message),
		closed: make(chan struct{}),
	}
}

func (b *MemoryBroker) queue(channel string) chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[channel]
	if !ok {
		q = make(chan Message, b.buffer)
		b.queues[channel] = q
	}
	return q
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	msg := Message{ID: uuid.NewString(), Data: append([]byte(nil), data...), Attributes: attrs}
	select {
	case <-b.closed:
		return "", ErrBrokerClosed
	case <-ctx.Done():
		return "", ctx.Err()
	case b.queue(channel) <- msg:
		return msg.ID, nil
	}
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	q := b.queue(channel)
	for {
		select {
		case <-b.closed:
			return ErrBrokerClosed
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			if err := handler(ctx, msg); err != nil {
				select {
				case q <- msg:
				default:
				}
			}
		}
	}
}

func (b *MemoryBroker) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

package axi

import (
	"context"
	"sync"

	"github.com/sarchlab/akita/v4/sim"
)

// A Notifier is woken up when a channel it is attached to changes. Ticking
// components satisfy it through their TickLater method.
type Notifier interface {
	TickLater()
}

// Channel is a valid/ready handshake channel modeled as a bounded FIFO. A
// push succeeds only when the FIFO has room, which stands for the receiver
// asserting ready. Channels are safe for concurrent use.
type Channel[T any] struct {
	mu      sync.Mutex
	buf     sim.Buffer
	changed chan struct{}

	producer Notifier
	consumer Notifier
}

// NewChannel creates a channel. The name must follow the akita naming
// convention, for example "Master[0].AR".
func NewChannel[T any](name string, capacity int) *Channel[T] {
	return &Channel[T]{
		buf:     sim.NewBuffer(name, capacity),
		changed: make(chan struct{}),
	}
}

// Name returns the name of the channel.
func (c *Channel[T]) Name() string {
	return c.buf.Name()
}

// SetProducer registers the component to wake up when room frees up.
func (c *Channel[T]) SetProducer(n Notifier) {
	c.producer = n
}

// SetConsumer registers the component to wake up when an item arrives.
func (c *Channel[T]) SetConsumer(n Notifier) {
	c.consumer = n
}

// AcceptHook registers a hook on the underlying buffer.
func (c *Channel[T]) AcceptHook(h sim.Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.AcceptHook(h)
}

// PushNB tries to hand over an item. It returns false when the receiver is
// not ready.
func (c *Channel[T]) PushNB(v T) bool {
	c.mu.Lock()

	if !c.buf.CanPush() {
		c.mu.Unlock()
		return false
	}

	c.buf.Push(v)
	c.signal()
	c.mu.Unlock()

	if c.consumer != nil {
		c.consumer.TickLater()
	}

	return true
}

// PopNB tries to take an item. It returns false when nothing is valid.
func (c *Channel[T]) PopNB() (T, bool) {
	c.mu.Lock()

	var zero T
	if c.buf.Size() == 0 {
		c.mu.Unlock()
		return zero, false
	}

	v := c.buf.Pop().(T)
	c.signal()
	c.mu.Unlock()

	if c.producer != nil {
		c.producer.TickLater()
	}

	return v, true
}

// Peek returns the oldest item without removing it.
func (c *Channel[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.buf.Size() == 0 {
		return zero, false
	}

	return c.buf.Peek().(T), true
}

// Push blocks until the item is handed over or the context is done.
func (c *Channel[T]) Push(ctx context.Context, v T) error {
	for {
		wait := c.waitChan()
		if c.PushNB(v) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

// Pop blocks until an item is valid or the context is done.
func (c *Channel[T]) Pop(ctx context.Context) (T, error) {
	for {
		wait := c.waitChan()
		if v, ok := c.PopNB(); ok {
			return v, nil
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-wait:
		}
	}
}

// Size returns the number of items in flight.
func (c *Channel[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buf.Size()
}

// Capacity returns the number of items the channel can hold.
func (c *Channel[T]) Capacity() int {
	return c.buf.Capacity()
}

// Reset drops every item in flight.
func (c *Channel[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Clear()
	c.signal()
}

func (c *Channel[T]) waitChan() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.changed
}

// signal wakes up blocked callers. The caller must hold the lock.
func (c *Channel[T]) signal() {
	close(c.changed)
	c.changed = make(chan struct{})
}

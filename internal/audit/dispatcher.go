package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Sink receives emitted events.
type Sink[E any] interface {
	Emit(ctx context.Context, event E)
}

// Dispatcher forwards events to a sink from a single worker goroutine, in
// the order they were queued.
type Dispatcher[E any] struct {
	sink       Sink[E]
	dropIfFull bool
	queue      chan E
	stopping   chan struct{}
	finished   chan struct{}

	stopOnce sync.Once
	mu       sync.RWMutex
	closed   bool
	dropped  atomic.Uint64
}

// NewDispatcher starts a dispatcher goroutine. It returns nil when cfg is
// disabled or sink is nil; a nil *Dispatcher is safe to use.
func NewDispatcher[E any](cfg Config, sink Sink[E]) *Dispatcher[E] {
	if !cfg.Enabled || sink == nil {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &Dispatcher[E]{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan E, size),
		stopping:   make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver runs until Close closes the queue, so every accepted event reaches
// the sink.
func (d *Dispatcher[E]) deliver() {
	defer close(d.finished)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With DropIfFull a full buffer drops the event and bumps
// the dropped counter; otherwise Emit blocks until there is room, ctx ends or
// the dispatcher closes. Events emitted after Close are ignored.
func (d *Dispatcher[E]) Emit(ctx context.Context, event E) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stopping:
	}
}

// Close stops accepting events, waits for the queued ones to be delivered
// and stops the worker. It is idempotent.
func (d *Dispatcher[E]) Close() {
	if d == nil {
		return
	}

	// Release emitters blocked on a full queue before taking the write lock.
	d.stopOnce.Do(func() { close(d.stopping) })

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.finished
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher[E]) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

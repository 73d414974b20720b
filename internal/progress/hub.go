package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sink receives event batches from the Hub. Consume runs on the hub's
// background goroutine and must honor ctx; a failing sink is logged and
// skipped, never retried. Close is called exactly once during hub shutdown.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter is the producer side of the activity stream. *Hub implements it;
// collector and scheduler code depends on this interface only.
type Emitter interface {
	Emit(evt Event)
}

// Config tunes buffering and batching for the Hub. The zero value is usable;
// unset fields fall back to the package defaults.
type Config struct {
	// BufferSize caps how many events may queue between emitters and the
	// batching goroutine. Default 1024.
	BufferSize int
	// MaxBatchEvents flushes a batch as soon as it reaches this size.
	// Default 256.
	MaxBatchEvents int
	// MaxBatchWait flushes a partial batch this long after its first event.
	// Default 500ms.
	MaxBatchWait time.Duration
	// SinkTimeout bounds each sink's Consume call. Default 10s.
	SinkTimeout time.Duration
	// BaseContext is the parent of every sink context. Defaults to
	// context.Background().
	BaseContext context.Context
	// Logger receives drop and sink-failure warnings. Defaults to a nop.
	Logger *zap.Logger
}

const (
	defaultBufferSize     = 1024
	defaultMaxBatchEvents = 256
	defaultMaxBatchWait   = 500 * time.Millisecond
	defaultSinkTimeout    = 10 * time.Second
	dropLogEvery          = 5 * time.Second
)

func (c Config) normalized() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.MaxBatchEvents <= 0 {
		c.MaxBatchEvents = defaultMaxBatchEvents
	}
	if c.MaxBatchWait <= 0 {
		c.MaxBatchWait = defaultMaxBatchWait
	}
	if c.SinkTimeout <= 0 {
		c.SinkTimeout = defaultSinkTimeout
	}
	if c.BaseContext == nil {
		c.BaseContext = context.Background()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Hub fans run milestones out to the configured sinks. Emitters hand events
// to Emit and are never blocked by slow consumers; when the buffer is full
// events are dropped and counted instead. Batches reach sinks either when
// MaxBatchEvents accumulate or MaxBatchWait elapses, whichever comes first.
type Hub struct {
	cfg    Config
	sinks  []Sink
	events chan Event
	quit   chan struct{}
	done   chan struct{}
	logger *zap.Logger

	dropped  atomic.Int64
	lastDrop atomic.Int64
	closed   atomic.Bool

	closeOnce sync.Once
	closeCtx  context.Context
}

// NewHub starts the batching goroutine and returns a Hub that accepts events
// immediately. Call Close to flush and release it.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	cfg = cfg.normalized()
	h := &Hub{
		cfg:    cfg,
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, cfg.BufferSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: cfg.Logger,
	}
	go h.run()
	return h
}

// Emit queues evt for delivery. Malformed events are discarded, and when the
// buffer is full the event is dropped with a throttled warning. Emit never
// blocks and is safe on a nil Hub.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("ignoring malformed progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		h.dropped.Add(1)
		h.reportDrops(time.Now())
	}
}

// reportDrops logs the accumulated drop count at most once per dropLogEvery.
func (h *Hub) reportDrops(now time.Time) {
	last := h.lastDrop.Load()
	if now.UnixNano()-last < dropLogEvery.Nanoseconds() {
		return
	}
	if !h.lastDrop.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	h.logger.Warn("progress buffer full, dropping events", zap.Int64("dropped", h.dropped.Swap(0)))
}

// Close stops intake, delivers whatever is still buffered, closes the sinks,
// and waits for the background goroutine. ctx bounds the wait. Repeat calls
// after the first only wait; the shutdown itself runs once.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeCtx = ctx
		close(h.quit)
	})
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress hub shutdown: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.done)
	b := newBatcher(h.cfg.MaxBatchEvents, h.cfg.MaxBatchWait)
	for {
		select {
		case evt := <-h.events:
			if b.add(evt) {
				h.flush(b.take())
			}
		case <-b.timer.C:
			b.armed = false
			h.flush(b.take())
		case <-h.quit:
			h.drain(b)
			return
		}
	}
}

// drain empties the channel after shutdown begins, delivers the remainder,
// and closes the sinks.
func (h *Hub) drain(b *batcher) {
	for {
		select {
		case evt := <-h.events:
			if b.add(evt) {
				h.flush(b.take())
			}
		default:
			h.flush(b.take())
			h.closeSinks()
			return
		}
	}
}

// flush hands the batch to every sink, each under its own timeout. The batch
// is owned by the callee from here on; failures are logged per sink and do
// not stop delivery to the rest.
func (h *Hub) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}
	for _, s := range h.sinks {
		if s == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(h.cfg.BaseContext, h.cfg.SinkTimeout)
		err := s.Consume(ctx, batch)
		cancel()
		if err != nil {
			h.logger.Warn("progress sink rejected batch", zap.Error(err))
		}
	}
}

func (h *Hub) closeSinks() {
	ctx := h.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, s := range h.sinks {
		if s == nil {
			continue
		}
		if err := s.Close(ctx); err != nil {
			h.logger.Warn("progress sink did not close cleanly", zap.Error(err))
		}
	}
}

// batcher accumulates events until the size limit is hit or the wait timer
// fires. It is owned by the run goroutine and is not safe for sharing.
type batcher struct {
	limit int
	wait  time.Duration
	buf   []Event
	timer *time.Timer
	armed bool
}

func newBatcher(limit int, wait time.Duration) *batcher {
	t := time.NewTimer(wait)
	if !t.Stop() {
		<-t.C
	}
	return &batcher{
		limit: limit,
		wait:  wait,
		buf:   make([]Event, 0, limit),
		timer: t,
	}
}

// add appends evt, arming the wait timer on the first event of a batch, and
// reports whether the size limit was reached.
func (b *batcher) add(evt Event) bool {
	b.buf = append(b.buf, evt)
	if len(b.buf) >= b.limit {
		return true
	}
	if !b.armed {
		b.timer.Reset(b.wait)
		b.armed = true
	}
	return false
}

// take returns the pending batch, handing ownership to the caller, and resets
// the batcher for the next one.
func (b *batcher) take() []Event {
	b.disarm()
	if len(b.buf) == 0 {
		return nil
	}
	out := b.buf
	b.buf = make([]Event, 0, b.limit)
	return out
}

// disarm stops the wait timer, draining a fire that already happened.
func (b *batcher) disarm() {
	if !b.armed {
		return
	}
	if !b.timer.Stop() {
		select {
		case <-b.timer.C:
		default:
		}
	}
	b.armed = false
}

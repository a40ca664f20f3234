// Package publisher delivers audit events to a store, synchronously by
// default or through a buffered channel when configured.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pronounapi/pkg/platform/audit"
	"pronounapi/pkg/platform/audit/store"
)

type Publisher struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time

	ch   chan audit.Event
	wg   sync.WaitGroup
	once sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer delivers events from a background goroutine through a
// buffer of the given size. Publish drops the event with a log line when the
// buffer is full; audit must never block request handling.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.ch = make(chan audit.Event, size) }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

func New(s store.Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: s, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Publish records one event. The event's ID and OccurredAt are assigned here.
func (p *Publisher) Publish(ctx context.Context, event audit.Event) {
	event.ID = uuid.NewString()
	event.OccurredAt = p.now()

	if p.ch == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
		return
	}

	select {
	case p.ch <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.ch {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}

// Close stops accepting events and waits for buffered ones to be written.
func (p *Publisher) Close() {
	if p.ch == nil {
		return
	}
	p.once.Do(func() { close(p.ch) })
	p.wg.Wait()
}

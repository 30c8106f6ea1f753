package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/circuit"
)

var (
	ErrBufferFull      = errors.New("audit buffer full")
	ErrClosed          = errors.New("audit publisher closed")
	ErrListUnsupported = errors.New("audit store does not support listing")
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// In async mode events are queued on a bounded buffer and written by a single
// goroutine. Emit never blocks when the buffer is full; the event is dropped
// and ErrBufferFull returned. Close drains whatever is queued. Compliance
// events bypass the buffer: they are written synchronously so a failed write
// reaches the caller, which must then fail the operation.
//
// With a breaker attached, operational events are dropped while the sink is
// failing. Compliance and security events are always attempted.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	breaker *circuit.Breaker

	mu     sync.RWMutex
	closed bool
	buffer chan audit.Event
	done   chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.buffer = make(chan audit.Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithBreaker guards the sink with a circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if p.buffer == nil || event.Category == audit.CategoryCompliance {
		return p.write(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", event.Action,
			"category", event.Category,
		)
		return ErrBufferFull
	}
}

// List returns the events recorded for subject when the store supports reads.
func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return lister.ListBySubject(ctx, subject)
}

// Close stops accepting events and waits for the async buffer to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.buffer {
		if err := p.write(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"error", err,
			)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if p.breaker == nil {
		return p.store.Append(ctx, event)
	}
	if event.Category == audit.CategoryOperations && !p.breaker.Allow() {
		p.logger.Debug("audit sink circuit open, dropping ops event", "action", event.Action)
		return nil
	}

	err := p.store.Append(ctx, event)
	if err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.Warn("audit sink circuit opened", "breaker", p.breaker.Name(), "error", err)
		}
		return err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.Info("audit sink circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}

// Package publisher drains the prediction event queue into a Sink.
package publisher

import (
	"context"
	"fmt"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
	"github.com/ArnavTamrakar/Fight-predict/pkg/metrics"
)

// Source is the receive side of the event queue.
type Source interface {
	Events() <-chan model.PredictionEvent
}

// Publisher forwards queued events to a sink from a single goroutine.
type Publisher struct {
	source Source
	sink   Sink
	name   string
	logger logger.Logger

	done chan struct{}
}

// New creates a publisher. Call Run in its own goroutine.
func New(source Source, sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		source: source,
		sink:   sink,
		name:   "publisher",
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Run publishes until the source channel is closed and drained, or ctx is
// cancelled.
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)

	events := p.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			p.publish(ctx, e)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, e model.PredictionEvent) { //nolint:gocritic // hugeParam: events travel by value
	sink := p.sink.Name()
	if err := p.sink.Publish(ctx, e); err != nil {
		metrics.RecordEventPublished(sink, "error")
		metrics.RecordErrorByComponent("publisher", "publish_error")
		p.logger.Warn(ctx, "event publish failed",
			logger.String("id", e.ID),
			logger.String("sink", sink),
			logger.Error(err),
		)
		return
	}
	metrics.RecordEventPublished(sink, "ok")
}

// Shutdown waits for Run to return, then closes the sink. The caller closes
// the queue first so Run can drain what is left.
func (p *Publisher) Shutdown(ctx context.Context) error {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
	if err := p.sink.Close(); err != nil {
		return fmt.Errorf("close %s sink: %w", p.sink.Name(), err)
	}
	return nil
}

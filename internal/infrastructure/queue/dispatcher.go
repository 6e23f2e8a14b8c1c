package queue

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/core/domain"
)

const channelBuffer = 64

// Dispatcher delivers auth events to subscribers from a single worker, so
// every subscriber observes events in the order they were published.
type Dispatcher struct {
	events chan domain.AuthEvent
	log    zerolog.Logger

	mu   sync.RWMutex
	subs map[int]func(domain.AuthEvent)
	next int

	done chan struct{}
}

// NewDispatcher creates an idle dispatcher. Call Start to begin delivery.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		events: make(chan domain.AuthEvent, channelBuffer),
		log:    log.With().Str("component", "auth_events").Logger(),
		subs:   make(map[int]func(domain.AuthEvent)),
		done:   make(chan struct{}),
	}
}

// Start launches the worker. It stops when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Done is closed once the worker has stopped.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Publish queues evt for delivery. It blocks once channelBuffer events are
// pending, or returns early if ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, evt domain.AuthEvent) {
	select {
	case d.events <- evt:
	case <-ctx.Done():
		d.log.Warn().Str("event", string(evt.Type)).Msg("auth event dropped")
	}
}

// Subscribe registers fn for all future events.
func (d *Dispatcher) Subscribe(fn func(domain.AuthEvent)) (unsubscribe func()) {
	d.mu.Lock()
	d.next++
	id := d.next
	d.subs[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.events:
			d.deliver(evt)
		}
	}
}

func (d *Dispatcher) deliver(evt domain.AuthEvent) {
	d.mu.RLock()
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(domain.AuthEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.subs[id])
	}
	d.mu.RUnlock()

	for _, fn := range fns {
		d.safeCall(fn, evt)
	}
}

func (d *Dispatcher) safeCall(fn func(domain.AuthEvent), evt domain.AuthEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("event", string(evt.Type)).Msg("auth event subscriber panicked")
		}
	}()
	fn(evt)
}

package event

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/formtoolbar/internal/event/topic"
)

// Priority determines handler execution order. Lower values run first.
type Priority int

const (
	// PriorityCritical is for state recomputation that other handlers read.
	PriorityCritical Priority = 0

	// PriorityNormal is the default.
	PriorityNormal Priority = 200

	// PriorityLow is for logging and metrics.
	PriorityLow Priority = 300
)

// HandlerFunc handles a type-erased event.
type HandlerFunc func(ctx context.Context, event any) error

// Subscription is a registered handler for a topic pattern.
type Subscription struct {
	id       string
	pattern  topic.Topic
	priority Priority
	once     bool
	handler  HandlerFunc
	seq      uint64
	active   atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed topic pattern.
func (s *Subscription) Topic() topic.Topic { return s.pattern }

// IsActive reports whether the subscription still receives events.
func (s *Subscription) IsActive() bool { return s.active.Load() }

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) { s.priority = p }
}

// Once cancels the subscription after its first successful delivery.
func Once() SubscriptionOption {
	return func(s *Subscription) { s.once = true }
}

// Stats holds bus counters.
type Stats struct {
	Subscriptions   int
	EventsPublished uint64
	Deliveries      uint64
	HandlerErrors   uint64
	HandlerPanics   uint64
}

// PanicHandler observes recovered handler panics.
type PanicHandler func(event any, sub *Subscription, recovered any)

// Bus delivers events synchronously to matching subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	panicHandler PanicHandler

	published atomic.Uint64
	delivered atomic.Uint64
	errs      atomic.Uint64
	panics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithPanicHandler sets a callback for recovered handler panics.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(b *Bus) { b.panicHandler = h }
}

// NewBus creates an event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for events whose topic matches pattern.
func (b *Bus) Subscribe(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if fn == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		pattern:  pattern,
		priority: PriorityNormal,
		handler:  fn,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub.seq = b.seq
	b.subs = append(b.subs, sub)
	sort.SliceStable(b.subs, func(i, j int) bool {
		if b.subs[i].priority != b.subs[j].priority {
			return b.subs[i].priority < b.subs[j].priority
		}
		return b.subs[i].seq < b.subs[j].seq
	})
	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			s.active.Store(false)
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers event to every matching subscriber before returning.
// Handler errors and panics do not stop delivery; they are joined into the
// returned error.
func (b *Bus) Publish(ctx context.Context, ev any) error {
	tp, ok := ev.(TopicProvider)
	if !ok || tp.EventTopic() == "" {
		return ErrInvalidEvent
	}
	eventTopic := tp.EventTopic()

	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.IsActive() && eventTopic.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)

	var errs []error
	for _, s := range matched {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !s.IsActive() {
			continue
		}
		if err := b.deliver(ctx, s, eventTopic, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		b.delivered.Add(1)
		if s.once {
			_ = b.Unsubscribe(s)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, s *Subscription, t topic.Topic, ev any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			b.panics.Add(1)
			if b.panicHandler != nil {
				b.panicHandler(ev, s, r)
			}
			err = &PanicError{SubscriptionID: s.id, Topic: string(t), Value: r, Stack: string(stack[:n])}
		}
	}()

	if herr := s.handler(ctx, ev); herr != nil {
		b.errs.Add(1)
		return &HandlerError{SubscriptionID: s.id, Topic: string(t), Err: herr}
	}
	return nil
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Subscriptions:   n,
		EventsPublished: b.published.Load(),
		Deliveries:      b.delivered.Load(),
		HandlerErrors:   b.errs.Load(),
		HandlerPanics:   b.panics.Load(),
	}
}

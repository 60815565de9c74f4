// Package toolbar binds a command registry to one editing session and
// keeps the toolbar's active state current as the document changes.
package toolbar

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/classifier"
	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/dispatcher"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/event"
	"github.com/dshills/formtoolbar/internal/event/topic"
	"github.com/dshills/formtoolbar/internal/logging"
	"github.com/dshills/formtoolbar/internal/registry"
	"github.com/dshills/formtoolbar/internal/resolver"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("toolbar: controller closed")

// Session is the part of the editing session the controller observes.
type Session interface {
	command.Session
	Version() uint64
	OnChange(l document.Listener) (cancel func())
}

// State is one rendering of the toolbar.
type State struct {
	// Version is the document version the state was computed for.
	Version uint64

	// Entries is the dropdown sequence in registration order.
	Entries []command.Entry

	// ActiveOption is the highlighted block option, or nil.
	ActiveOption *command.Command

	// Icon and Label show the active option or the fallback.
	Icon  string
	Label string

	// Buttons is the toggle bar in layout order. Separators have the
	// separator key and no command.
	Buttons []classifier.Button

	// Active holds every registered command whose predicate held.
	Active resolver.ActiveSet
}

// IsActive reports whether the command for key was active.
func (s State) IsActive(key string) bool {
	return s.Active.Has(key)
}

// ActiveKey returns the key of the highlighted option, or "".
func (s State) ActiveKey() string {
	if s.ActiveOption == nil {
		return ""
	}
	return s.ActiveOption.Key
}

// Button returns the toggle button for key.
func (s State) Button(key string) (classifier.Button, bool) {
	for _, b := range s.Buttons {
		if b.Key == key {
			return b, true
		}
	}
	return classifier.Button{}, false
}

// Controller recomputes toolbar state on every session change.
type Controller struct {
	mu sync.RWMutex

	session    Session
	reg        *registry.Registry
	layout     []string
	classifier *classifier.Classifier
	dispatcher *dispatcher.Dispatcher
	bus        *event.Bus
	logger     *slog.Logger

	state  State
	cancel func()
	closed bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithBus publishes state changes and dispatch outcomes on bus.
func WithBus(bus *event.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = logging.WithComponent(l, "toolbar") }
}

// WithClassifier replaces the default classifier.
func WithClassifier(cl *classifier.Classifier) Option {
	return func(c *Controller) { c.classifier = cl }
}

// WithDispatcher replaces the default dispatcher. The controller installs
// its registry as the dispatcher's command source.
func WithDispatcher(d *dispatcher.Dispatcher) Option {
	return func(c *Controller) { c.dispatcher = d }
}

// WithButtons sets the toggle bar layout.
func WithButtons(keys []string) Option {
	return func(c *Controller) { c.layout = append([]string(nil), keys...) }
}

// New mounts a controller on session. The registry must have been built
// for the same session.
func New(session Session, reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{
		session: session,
		reg:     reg,
		layout:  catalog.DefaultButtons,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.classifier == nil {
		c.classifier = classifier.New(classifier.WithLogger(c.logger))
	}
	if c.dispatcher == nil {
		c.dispatcher = dispatcher.NewWithDefaults(dispatcher.WithLogger(c.logger))
	}
	c.dispatcher.SetCommands(reg)

	c.state = c.compute()
	c.cancel = session.OnChange(c.onChange)
	return c
}

// State returns the latest computed state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Registry returns the current registry.
func (c *Controller) Registry() *registry.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg
}

// Dispatcher returns the controller's dispatcher.
func (c *Controller) Dispatcher() *dispatcher.Dispatcher {
	return c.dispatcher
}

// Dispatch executes the command for key. Failures are logged, published
// and reported in the result; they never reach the caller as errors.
func (c *Controller) Dispatch(key string) dispatcher.Result {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return dispatcher.Failure(ErrClosed)
	}

	result := c.dispatcher.Dispatch(key)
	switch result.Status {
	case dispatcher.StatusError:
		c.logger.Warn("toolbar command failed", "key", key, "error", result.Error)
		c.publish(topic.CommandFailed, result)
	default:
		c.publish(topic.CommandDispatched, result)
	}
	return result
}

// Rebuild swaps in a registry built for the same session and recomputes
// the state.
func (c *Controller) Rebuild(reg *registry.Registry, opts ...Option) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.reg = reg
	for _, opt := range opts {
		opt(c)
	}
	c.dispatcher.SetCommands(reg)
	c.state = c.computeLocked()
	st := c.state
	c.mu.Unlock()

	c.logger.Info("toolbar rebuilt", "entries", len(reg.Entries()))
	c.publish(topic.ToolbarRebuilt, st)
	return nil
}

// Refresh recomputes the state without a session change.
func (c *Controller) Refresh() State {
	c.mu.Lock()
	c.state = c.computeLocked()
	st := c.state
	c.mu.Unlock()
	return st
}

// Close detaches the controller from the session. It is safe to call
// more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

func (c *Controller) onChange(ch document.Change) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = c.computeLocked()
	st := c.state
	c.mu.Unlock()

	if ch.Kind.Has(document.ChangeContent) {
		c.publish(topic.DocumentContentChanged, ch)
	}
	if ch.Kind.Has(document.ChangeSelection) {
		c.publish(topic.DocumentSelectionChanged, ch)
	}
	c.publish(topic.ToolbarStateChanged, st)
}

func (c *Controller) compute() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computeLocked()
}

// computeLocked evaluates every predicate once and derives the dropdown
// and the toggle bar from that single active set.
func (c *Controller) computeLocked() State {
	active := resolver.Resolve(c.reg.Commands())
	cl := c.classifier.Classify(c.reg.Menu(), active)
	st := State{
		Version:      c.session.Version(),
		Entries:      cl.Entries,
		ActiveOption: cl.ActiveOption,
		Icon:         cl.Icon(catalog.FallbackIcon),
		Label:        cl.Label(catalog.FallbackLabel),
		Active:       active,
	}

	for _, key := range c.layout {
		if key == catalog.Separator {
			st.Buttons = append(st.Buttons, classifier.Button{Key: catalog.Separator})
			continue
		}
		cmd, ok := c.reg.Lookup(key)
		if !ok {
			continue
		}
		st.Buttons = append(st.Buttons, classifier.Buttons([]*command.Command{cmd}, active)...)
	}
	return st
}

func (c *Controller) publish(t topic.Topic, payload any) {
	if c.bus == nil {
		return
	}
	var err error
	switch p := payload.(type) {
	case State:
		err = c.bus.Publish(context.Background(), event.NewEvent(t, p, "toolbar"))
	case dispatcher.Result:
		err = c.bus.Publish(context.Background(), event.NewEvent(t, p, "toolbar"))
	case document.Change:
		err = c.bus.Publish(context.Background(), event.NewEvent(t, p, "document"))
	}
	if err != nil {
		c.logger.Warn("event delivery failed", "topic", string(t), "error", err)
	}
}

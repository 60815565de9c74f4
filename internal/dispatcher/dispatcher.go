package dispatcher

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/logging"
)

// Commands resolves keys to commands. *registry.Registry implements it.
type Commands interface {
	Lookup(key string) (*command.Command, bool)
}

// Dispatcher resolves keys and executes commands.
type Dispatcher struct {
	mu sync.RWMutex

	commands Commands
	version  func() uint64
	logger   *slog.Logger

	config  Config
	metrics *Metrics

	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook

	running atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCommands installs the command source.
func WithCommands(c Commands) Option {
	return func(d *Dispatcher) { d.commands = c }
}

// WithVersion installs a document version source. A command that leaves the
// version unchanged reports StatusNoOp.
func WithVersion(fn func() uint64) Option {
	return func(d *Dispatcher) { d.version = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logging.WithComponent(l, "dispatcher") }
}

// New creates a new dispatcher with the given configuration.
func New(config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config: config,
		logger: logging.Nop(),
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults(opts ...Option) *Dispatcher {
	return New(DefaultConfig(), opts...)
}

// SetCommands swaps the command source. A rebuilt registry is installed
// this way; in-flight dispatches keep the source they resolved against.
func (d *Dispatcher) SetCommands(c Commands) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = c
}

// Dispatch executes the command registered under key.
func (d *Dispatcher) Dispatch(key string) Result {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Warn("re-entrant dispatch refused", "key", key)
		return Result{Key: key, Status: StatusError, Error: ErrReentrantDispatch}
	}
	defer d.running.Store(false)

	start := time.Now()
	result := d.dispatch(key)
	result.Key = key
	result.Duration = time.Since(start)

	if d.metrics != nil {
		d.metrics.RecordDispatch(key, result.Duration, result.Status)
	}
	return result
}

func (d *Dispatcher) dispatch(key string) Result {
	d.mu.RLock()
	commands := d.commands
	pre := append([]PreDispatchHook(nil), d.preHooks...)
	post := append([]PostDispatchHook(nil), d.postHooks...)
	d.mu.RUnlock()

	if commands == nil {
		return Failure(ErrNoRegistry)
	}
	c, ok := commands.Lookup(key)
	if !ok {
		return Failure(&UnknownCommandError{Key: key})
	}

	req := &Request{Key: key, Command: c}
	for _, h := range pre {
		if !h.PreDispatch(req) {
			result := Cancelled("cancelled by hook")
			d.runPostHooks(post, req, &result)
			return result
		}
	}

	var before uint64
	if d.version != nil {
		before = d.version()
	}

	var err error
	if d.config.RecoverFromPanic {
		err = d.executeWithRecovery(c)
	} else {
		err = c.Execute()
	}

	var result Result
	switch {
	case err != nil:
		result = Failure(err)
	case d.version != nil && d.version() == before:
		result = NoOp()
	default:
		result = Success()
	}

	d.runPostHooks(post, req, &result)
	return result
}

// executeWithRecovery executes a command with panic recovery.
func (d *Dispatcher) executeWithRecovery(c *command.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Key: c.Key, Value: r}
			if d.config.StackSize > 0 {
				stack := make([]byte, d.config.StackSize)
				pe.Stack = stack[:runtime.Stack(stack, false)]
			}
			err = pe

			if d.metrics != nil {
				d.metrics.RecordPanic(c.Key)
			}
			d.logger.Error("command panicked", "key", c.Key, "panic", r)
		}
	}()

	return c.Execute()
}

func (d *Dispatcher) runPostHooks(hooks []PostDispatchHook, req *Request, result *Result) {
	for _, h := range hooks {
		h.PostDispatch(req, result)
	}
}

// RegisterPreHook registers a pre-dispatch hook.
func (d *Dispatcher) RegisterPreHook(hook PreDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

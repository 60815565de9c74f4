// Package app wires configuration, the editing session, the command
// registry and the toolbar controller together and manages their lifecycle.
package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/formtoolbar/internal/config"
	"github.com/dshills/formtoolbar/internal/dispatcher"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/event"
	"github.com/dshills/formtoolbar/internal/plugin/lua"
	"github.com/dshills/formtoolbar/internal/toolbar"
)

// Application owns one toolbar mounted on one session.
type Application struct {
	mu sync.RWMutex

	opts   Options
	cfg    *config.Config
	logger *slog.Logger

	bus        *event.Bus
	session    *document.Session
	dispatcher *dispatcher.Dispatcher
	toolbar    *toolbar.Controller
	plugins    []*lua.Plugin
	watcher    *config.Watcher
	subs       []*event.Subscription

	reloads atomic.Uint64
	closed  atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty uses defaults.
	ConfigPath string

	// DocPath is a TipTap JSON document to open. Empty starts with one
	// empty paragraph.
	DocPath string

	// LogLevel and LogFormat override the configured logging when set.
	LogLevel  string
	LogFormat string

	// LogOutput receives log records. Defaults to stderr.
	LogOutput io.Writer

	// Development enables ambiguity warnings.
	Development bool

	// ReadOnly cancels every command dispatch.
	ReadOnly bool

	// Watch reloads the configuration file when it changes.
	Watch bool
}

// New builds an application from opts.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// Config returns the configuration in effect.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// EventBus returns the event bus.
func (app *Application) EventBus() *event.Bus {
	return app.bus
}

// Session returns the editing session.
func (app *Application) Session() *document.Session {
	return app.session
}

// Dispatcher returns the command dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Toolbar returns the toolbar controller.
func (app *Application) Toolbar() *toolbar.Controller {
	return app.toolbar
}

// Reloads returns the number of applied configuration reloads.
func (app *Application) Reloads() uint64 {
	return app.reloads.Load()
}

// Shutdown releases everything in reverse bootstrap order. It is safe to
// call more than once.
func (app *Application) Shutdown() {
	if !app.closed.CompareAndSwap(false, true) {
		return
	}

	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.logger.Warn("closing config watcher", "error", err)
		}
	}
	if app.toolbar != nil {
		app.toolbar.Close()
	}
	if app.dispatcher != nil && app.logger != nil {
		if m := app.dispatcher.Metrics(); m != nil {
			snap := m.Snapshot()
			app.logger.Info("dispatch metrics",
				"dispatches", snap.TotalDispatches,
				"errors", snap.TotalErrors,
				"cancelled", snap.TotalCancelled,
				"panics", snap.TotalPanics,
				"avg", snap.AverageDuration)
		}
	}

	app.mu.Lock()
	plugins := app.plugins
	app.plugins = nil
	app.mu.Unlock()
	closePlugins(app.logger, plugins)

	if app.bus != nil {
		for _, sub := range app.subs {
			_ = app.bus.Unsubscribe(sub)
		}
	}
}

// Wait blocks until ctx ends, then shuts down.
func (app *Application) Wait(ctx context.Context) {
	<-ctx.Done()
	app.Shutdown()
}

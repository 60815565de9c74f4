package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/classifier"
	"github.com/dshills/formtoolbar/internal/config"
	"github.com/dshills/formtoolbar/internal/dispatcher"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/event"
	"github.com/dshills/formtoolbar/internal/event/topic"
	"github.com/dshills/formtoolbar/internal/logging"
	"github.com/dshills/formtoolbar/internal/plugin"
	"github.com/dshills/formtoolbar/internal/plugin/lua"
	"github.com/dshills/formtoolbar/internal/registry"
	"github.com/dshills/formtoolbar/internal/toolbar"
)

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if err := app.applyOverrides(cfg); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	// 2. Logging
	lc := cfg.Logging()
	if app.opts.LogOutput != nil {
		lc.Output = app.opts.LogOutput
	}
	app.logger = logging.New(lc)

	// 3. Event bus
	app.bus = event.NewBus(event.WithPanicHandler(func(ev any, sub *event.Subscription, recovered any) {
		app.logger.Error("event handler panicked", "topic", sub.Topic(), "panic", recovered)
	}))
	if err := app.subscribe(); err != nil {
		return &InitError{Component: "event bus", Err: err}
	}

	// 4. Session
	app.session, err = openDocument(app.opts.DocPath)
	if err != nil {
		return &InitError{Component: "document", Err: err}
	}

	// 5. Registry
	reg, plugins, err := app.buildRegistry(cfg)
	if err != nil {
		return &InitError{Component: "registry", Err: err}
	}
	app.plugins = plugins

	// 6. Dispatcher
	dcfg := dispatcher.DefaultConfig().WithPanicRecovery(cfg.Dispatcher.RecoverFromPanic)
	if cfg.Dispatcher.Metrics {
		dcfg = dcfg.WithMetrics()
	}
	app.dispatcher = dispatcher.New(dcfg,
		dispatcher.WithVersion(app.session.Version),
		dispatcher.WithLogger(app.logger),
	)
	hook := dispatcher.NewLoggingHook(logging.WithComponent(app.logger, "dispatch"))
	app.dispatcher.RegisterPreHook(hook)
	app.dispatcher.RegisterPostHook(hook)
	if app.opts.ReadOnly {
		app.dispatcher.RegisterPreHook(&dispatcher.GroupFilterHook{})
	}

	// 7. Toolbar
	app.toolbar = toolbar.New(app.session, reg,
		toolbar.WithBus(app.bus),
		toolbar.WithLogger(app.logger),
		toolbar.WithDispatcher(app.dispatcher),
		toolbar.WithClassifier(app.classifier(cfg)),
		toolbar.WithButtons(cfg.Toolbar.Buttons),
	)

	// 8. Config watcher
	if app.opts.Watch && app.opts.ConfigPath != "" {
		app.watcher, err = config.Watch(app.opts.ConfigPath, app.reload,
			config.WithWatcherLogger(app.logger))
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
	}

	app.logger.Info("toolbar mounted",
		"session", app.session.ID(),
		"entries", reg.Len(),
		"plugins", len(plugins),
	)
	return nil
}

// applyOverrides layers command-line settings over a loaded config.
func (app *Application) applyOverrides(cfg *config.Config) error {
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	if app.opts.LogFormat != "" {
		cfg.Log.Format = app.opts.LogFormat
	}
	if app.opts.Development {
		cfg.Development = true
	}
	return cfg.Validate()
}

func (app *Application) classifier(cfg *config.Config) *classifier.Classifier {
	return classifier.New(
		classifier.WithLogger(app.logger),
		classifier.WithDevelopment(cfg.Development),
	)
}

// buildRegistry assembles the standard set plus plugin contributions. On
// error every plugin opened so far is closed.
func (app *Application) buildRegistry(cfg *config.Config) (*registry.Registry, []*lua.Plugin, error) {
	opts, err := cfg.CatalogOptions()
	if err != nil {
		return nil, nil, err
	}
	entries, err := catalog.Standard(app.session, opts)
	if err != nil {
		return nil, nil, err
	}

	var plugins []*lua.Plugin
	if cfg.Plugins.Enabled {
		for _, path := range app.pluginScripts(cfg) {
			p, contribs, err := app.loadPlugin(path, opts)
			if err != nil {
				closePlugins(app.logger, plugins)
				return nil, nil, err
			}
			plugins = append(plugins, p)
			entries = lua.Merge(entries, contribs)
		}
	}

	reg, err := registry.New(entries...)
	if err != nil {
		closePlugins(app.logger, plugins)
		return nil, nil, err
	}
	return reg, plugins, nil
}

// pluginScripts lists configured scripts followed by those discovered in
// the plugin directories. Unusable plugins are logged and skipped.
func (app *Application) pluginScripts(cfg *config.Config) []string {
	scripts := slices.Clone(cfg.Plugins.Scripts)
	if len(cfg.Plugins.Dirs) == 0 {
		return scripts
	}

	found, err := plugin.NewLoader(plugin.WithPaths(cfg.Plugins.Dirs...)).Discover()
	if err != nil {
		app.logger.Warn("plugin discovery incomplete", "error", err)
	}
	discovered, broken := plugin.Scripts(found)
	for _, info := range broken {
		app.logger.Warn("skipping plugin", "name", info.Name, "path", info.Path, "error", info.Err)
	}
	for _, s := range discovered {
		if !slices.Contains(scripts, s) {
			scripts = append(scripts, s)
		}
	}
	return scripts
}

func (app *Application) loadPlugin(path string, opts catalog.Options) (*lua.Plugin, []lua.Contribution, error) {
	p, err := lua.New(app.session,
		lua.WithLogger(app.logger),
		lua.WithMarkRule(opts.Rule),
	)
	if err != nil {
		return nil, nil, err
	}
	contribs, err := p.LoadFile(path)
	if err != nil {
		_ = p.Close()
		return nil, nil, fmt.Errorf("loading plugin %s: %w", path, err)
	}
	app.logger.Debug("plugin loaded", "path", path, "commands", len(contribs))
	return p, contribs, nil
}

func closePlugins(logger *slog.Logger, plugins []*lua.Plugin) {
	for _, p := range plugins {
		if err := p.Close(); err != nil {
			logging.OrNop(logger).Warn("closing plugin", "error", err)
		}
	}
}

// reload swaps in a new registry built from cfg. A failed reload keeps
// the previous toolbar.
func (app *Application) reload(cfg *config.Config, err error) {
	if err == nil {
		err = app.applyOverrides(cfg)
	}
	if err != nil {
		app.logger.Warn("config reload rejected", "error", err)
		return
	}

	reg, plugins, err := app.buildRegistry(cfg)
	if err != nil {
		app.logger.Warn("config reload rejected", "error", err)
		return
	}
	err = app.toolbar.Rebuild(reg,
		toolbar.WithButtons(cfg.Toolbar.Buttons),
		toolbar.WithClassifier(app.classifier(cfg)),
	)
	if err != nil {
		closePlugins(app.logger, plugins)
		return
	}

	app.mu.Lock()
	old := app.plugins
	app.plugins = plugins
	app.cfg = cfg
	app.mu.Unlock()
	closePlugins(app.logger, old)

	app.reloads.Add(1)
	publish(app, topic.ConfigReloaded, cfg)
}

func publish[T any](app *Application, t topic.Topic, payload T) {
	if err := app.bus.Publish(context.Background(), event.NewEvent(t, payload, "app")); err != nil {
		app.logger.Warn("event delivery failed", "topic", string(t), "error", err)
	}
}

// openDocument loads a TipTap JSON file, or starts an empty document.
func openDocument(path string) (*document.Session, error) {
	if strings.TrimSpace(path) == "" {
		return document.New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return document.LoadTipTap(f)
}

// subscribe installs the application's own bus handlers.
func (app *Application) subscribe() error {
	log := logging.WithComponent(app.logger, "events")

	sub, err := app.bus.Subscribe(topic.Topic("command.**"), func(_ context.Context, ev any) error {
		if r, ok := event.Payload[dispatcher.Result](ev); ok {
			log.Debug("command event", "key", r.Key, "status", r.Status)
		}
		return nil
	}, event.WithPriority(event.PriorityLow))
	if err != nil {
		return err
	}
	app.subs = append(app.subs, sub)

	sub, err = app.bus.Subscribe(topic.ToolbarRebuilt, func(_ context.Context, ev any) error {
		if st, ok := event.Payload[toolbar.State](ev); ok {
			log.Info("toolbar registry replaced", "entries", len(st.Entries), "active", st.ActiveKey())
		}
		return nil
	}, event.WithPriority(event.PriorityLow))
	if err != nil {
		return err
	}
	app.subs = append(app.subs, sub)
	return nil
}

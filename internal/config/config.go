// Package config loads, validates and watches the toolbar configuration.
//
// Configuration is read from a TOML or YAML file chosen by extension,
// overlaid with FORMTOOLBAR_* environment variables, and validated before
// use. A Watcher reloads the file on change.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/logging"
	"github.com/dshills/formtoolbar/internal/resolver"
)

// Config is the complete application configuration.
type Config struct {
	Log         LogConfig        `toml:"log" yaml:"log"`
	Toolbar     ToolbarConfig    `toml:"toolbar" yaml:"toolbar"`
	Dispatcher  DispatcherConfig `toml:"dispatcher" yaml:"dispatcher"`
	Plugins     PluginsConfig    `toml:"plugins" yaml:"plugins"`
	Development bool             `toml:"development" yaml:"development"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ToolbarConfig selects and decorates the standard command set.
type ToolbarConfig struct {
	Marks              []string              `toml:"marks" yaml:"marks"`
	HeadingLevels      []int                 `toml:"heading_levels" yaml:"heading_levels"`
	MarkRule           string                `toml:"mark_rule" yaml:"mark_rule"`
	HighlightParagraph bool                  `toml:"highlight_paragraph" yaml:"highlight_paragraph"`
	Omit               []string              `toml:"omit" yaml:"omit"`
	Buttons            []string              `toml:"buttons" yaml:"buttons"`
	Appearance         map[string]Appearance `toml:"appearance" yaml:"appearance"`
}

// Appearance overrides the label or icon of one entry.
type Appearance struct {
	Label string `toml:"label" yaml:"label"`
	Icon  string `toml:"icon" yaml:"icon"`
}

// DispatcherConfig configures command dispatch.
type DispatcherConfig struct {
	Metrics          bool `toml:"metrics" yaml:"metrics"`
	RecoverFromPanic bool `toml:"recover_from_panic" yaml:"recover_from_panic"`
}

// PluginsConfig lists Lua scripts that contribute commands. Dirs are
// searched for further plugins in order.
type PluginsConfig struct {
	Enabled bool     `toml:"enabled" yaml:"enabled"`
	Scripts []string `toml:"scripts" yaml:"scripts"`
	Dirs    []string `toml:"dirs" yaml:"dirs"`
}

// Default returns the stock configuration.
func Default() *Config {
	marks := make([]string, 0, len(catalog.DefaultMarks))
	for _, m := range catalog.DefaultMarks {
		marks = append(marks, string(m))
	}
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Toolbar: ToolbarConfig{
			Marks:         marks,
			HeadingLevels: slices.Clone(catalog.DefaultHeadingLevels),
			MarkRule:      resolver.RuleAll.String(),
			Buttons:       slices.Clone(catalog.DefaultButtons),
		},
		Dispatcher: DispatcherConfig{RecoverFromPanic: true},
		Plugins:    PluginsConfig{Enabled: true},
	}
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// FieldError reports one invalid setting.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidConfig.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format", "unknown format %q", c.Log.Format)
	}

	for _, m := range c.Toolbar.Marks {
		if !document.MarkType(m).Valid() {
			add("toolbar.marks", "unknown mark %q", m)
		}
	}
	seen := make(map[int]bool)
	for _, l := range c.Toolbar.HeadingLevels {
		if l < 1 || l > document.MaxHeadingLevel {
			add("toolbar.heading_levels", "level %d outside 1..%d", l, document.MaxHeadingLevel)
		}
		if seen[l] {
			add("toolbar.heading_levels", "level %d listed twice", l)
		}
		seen[l] = true
	}
	if c.Toolbar.MarkRule != "" {
		if _, err := resolver.ParseMarkRule(c.Toolbar.MarkRule); err != nil {
			add("toolbar.mark_rule", "%v", err)
		}
	}
	for _, s := range c.Plugins.Scripts {
		if strings.TrimSpace(s) == "" {
			add("plugins.scripts", "empty script path")
		}
	}
	for _, d := range c.Plugins.Dirs {
		if strings.TrimSpace(d) == "" {
			add("plugins.dirs", "empty directory")
		}
	}

	return errors.Join(errs...)
}

// CatalogOptions converts the toolbar section to catalog options.
func (c *Config) CatalogOptions() (catalog.Options, error) {
	opts := catalog.Options{
		HeadingLevels:      slices.Clone(c.Toolbar.HeadingLevels),
		HighlightParagraph: c.Toolbar.HighlightParagraph,
		Omit:               slices.Clone(c.Toolbar.Omit),
	}
	for _, m := range c.Toolbar.Marks {
		opts.Marks = append(opts.Marks, document.MarkType(m))
	}
	if c.Toolbar.MarkRule != "" {
		rule, err := resolver.ParseMarkRule(c.Toolbar.MarkRule)
		if err != nil {
			return catalog.Options{}, err
		}
		opts.Rule = rule
	}
	if len(c.Toolbar.Appearance) > 0 {
		opts.Appearance = make(map[string]catalog.Appearance, len(c.Toolbar.Appearance))
		for k, a := range c.Toolbar.Appearance {
			opts.Appearance[k] = catalog.Appearance{Label: a.Label, Icon: a.Icon}
		}
	}
	return opts, nil
}

// Logging converts the log section to a logging configuration.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	if c.Log.Level != "" {
		lc.Level = logging.ParseLogLevel(c.Log.Level)
	}
	if c.Log.Format != "" {
		lc.Format = strings.ToLower(c.Log.Format)
	}
	return lc
}

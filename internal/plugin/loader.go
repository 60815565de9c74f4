package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Info describes one discovered plugin.
type Info struct {
	Name     string
	Path     string
	Manifest *Manifest

	// Err is set when the plugin was found but cannot be used.
	Err error
}

// Loader discovers plugins in a list of search directories. Earlier
// directories win when two plugins share a name.
type Loader struct {
	paths      []string
	discovered map[string]*Info
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the search directories.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = append([]string(nil), paths...)
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{discovered: make(map[string]*Info)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Paths returns the search directories.
func (l *Loader) Paths() []string {
	return l.paths
}

// Discover scans every search directory and returns the plugins sorted by
// name. Missing directories are skipped; unreadable ones are reported.
func (l *Loader) Discover() ([]*Info, error) {
	l.discovered = make(map[string]*Info)

	var errs []error
	for _, dir := range l.paths {
		if err := l.discoverIn(dir); err != nil {
			errs = append(errs, err)
		}
	}

	plugins := make([]*Info, 0, len(l.discovered))
	for _, info := range l.discovered {
		plugins = append(plugins, info)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name < plugins[j].Name
	})
	return plugins, errors.Join(errs...)
}

func (l *Loader) discoverIn(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("scanning plugin directory: %w", err)
	}

	for _, entry := range entries {
		var info *Info
		switch {
		case entry.IsDir():
			info = inspect(entry.Name(), filepath.Join(dir, entry.Name()))
		case filepath.Ext(entry.Name()) == ".lua":
			name := strings.TrimSuffix(entry.Name(), ".lua")
			info = &Info{
				Name:     name,
				Path:     dir,
				Manifest: newMinimalManifest(name, dir, entry.Name()),
			}
		default:
			continue
		}
		if _, exists := l.discovered[info.Name]; !exists {
			l.discovered[info.Name] = info
		}
	}
	return nil
}

// inspect examines a plugin directory.
func inspect(name, dir string) *Info {
	info := &Info{Name: name, Path: dir}

	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		m, err := LoadManifest(manifestPath)
		if err != nil {
			info.Err = fmt.Errorf("invalid manifest: %w", err)
			return info
		}
		if _, err := os.Stat(m.MainPath()); err != nil {
			info.Err = fmt.Errorf("%w: %s", ErrNoEntryPoint, m.Main)
			return info
		}
		info.Name = m.Name
		info.Manifest = m
		return info
	}

	for _, main := range []string{"init.lua", "plugin.lua"} {
		if _, err := os.Stat(filepath.Join(dir, main)); err == nil {
			info.Manifest = newMinimalManifest(name, dir, main)
			return info
		}
	}

	info.Err = ErrNoEntryPoint
	return info
}

// Get returns a discovered plugin by name.
func (l *Loader) Get(name string) (*Info, error) {
	info, ok := l.discovered[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return info, nil
}

// Scripts returns the entry scripts of usable plugins in name order, and
// the plugins that could not be used.
func Scripts(plugins []*Info) (scripts []string, broken []*Info) {
	for _, info := range plugins {
		if info.Err != nil || info.Manifest == nil {
			broken = append(broken, info)
			continue
		}
		scripts = append(scripts, info.Manifest.MainPath())
	}
	return scripts, broken
}

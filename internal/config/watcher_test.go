package config

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloads struct {
	mu   sync.Mutex
	cfgs []*Config
	errs []error
}

func (r *reloads) record(cfg *Config, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfgs = append(r.cfgs, cfg)
	r.errs = append(r.errs, err)
}

func (r *reloads) last() (*Config, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cfgs) == 0 {
		return nil, 0, nil
	}
	return r.cfgs[len(r.cfgs)-1], len(r.cfgs), r.errs[len(r.errs)-1]
}

func TestWatcherReloads(t *testing.T) {
	path := writeFile(t, "toolbar.toml", "[toolbar]\nheading_levels = [1]\n")

	var got reloads
	w, err := Watch(path, got.record, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[toolbar]\nheading_levels = [1, 2, 3]\n"), 0o644))
	require.Eventually(t, func() bool {
		cfg, _, err := got.last()
		return err == nil && cfg != nil && len(cfg.Toolbar.HeadingLevels) == 3
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("[toolbar]\nheading_levels = [42]\n"), 0o644))
	require.Eventually(t, func() bool {
		cfg, _, err := got.last()
		return err != nil && cfg == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	path := writeFile(t, "toolbar.toml", "")

	var got reloads
	w, err := Watch(path, got.record, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path+".bak", []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	_, n, _ := got.last()
	assert.Zero(t, n)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatcherReloadsDoNotOverlap(t *testing.T) {
	path := writeFile(t, "toolbar.toml", "")

	var running, overlaps, calls atomic.Int32
	onReload := func(*Config, error) {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		calls.Add(1)
	}
	w, err := Watch(path, onReload, WithDebounce(time.Hour))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.reload()
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	assert.Equal(t, int32(8), calls.Load())
	assert.Zero(t, overlaps.Load())
}

package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic wraps command execution in panic recovery. When
	// false a panicking command crashes the caller.
	RecoverFromPanic bool

	// StackSize bounds the stack captured on panic. Zero disables capture.
	StackSize int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics:    false,
		RecoverFromPanic: true,
		StackSize:        4096,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithStackSize returns a copy of the config with the panic stack size set.
func (c Config) WithStackSize(n int) Config {
	c.StackSize = n
	return c
}

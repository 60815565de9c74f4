package dispatcher

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	commands map[string]*CommandMetrics

	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64
	totalCancelled  uint64
	totalDuration   time.Duration
}

// CommandMetrics holds metrics for a single command key.
type CommandMetrics struct {
	Key           string
	DispatchCount uint64
	ErrorCount    uint64
	NoOpCount     uint64
	PanicCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastStatus    ResultStatus
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{commands: make(map[string]*CommandMetrics)}
}

// command returns the entry for key, creating it. Callers hold mu.
func (m *Metrics) command(key string) *CommandMetrics {
	cm := m.commands[key]
	if cm == nil {
		cm = &CommandMetrics{Key: key}
		m.commands[key] = cm
	}
	return cm
}

// RecordDispatch records a dispatch event.
func (m *Metrics) RecordDispatch(key string, duration time.Duration, status ResultStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration

	switch status {
	case StatusError:
		m.totalErrors++
	case StatusCancelled:
		m.totalCancelled++
	}

	cm := m.command(key)
	if cm.DispatchCount == 0 || duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	cm.MaxDuration = max(cm.MaxDuration, duration)
	cm.DispatchCount++
	cm.TotalDuration += duration
	cm.LastStatus = status
	cm.LastDispatch = time.Now()

	switch status {
	case StatusError:
		cm.ErrorCount++
	case StatusNoOp:
		cm.NoOpCount++
	}
}

// RecordPanic records a panic recovered while running key. The dispatch
// itself is recorded separately as an error.
func (m *Metrics) RecordPanic(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
	m.command(key).PanicCount++
}

// TotalDispatches returns the total number of dispatches.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// CommandStats returns a copy of the metrics for key, or nil.
func (m *Metrics) CommandStats(key string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commands[key]
	if cm == nil {
		return nil
	}
	c := *cm
	return &c
}

// TopCommands returns the n most dispatched commands.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	out := make([]*CommandMetrics, 0, len(m.commands))
	for _, cm := range m.commands {
		c := *cm
		out = append(out, &c)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *CommandMetrics) int {
		if a.DispatchCount != b.DispatchCount {
			if a.DispatchCount > b.DispatchCount {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out[:min(max(n, 0), len(out))]
}

// MetricsSnapshot is a point-in-time view of the metrics.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalCancelled  uint64
	AverageDuration time.Duration
	CommandCount    int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalCancelled:  m.totalCancelled,
		CommandCount:    len(m.commands),
		Timestamp:       time.Now(),
	}
	if m.totalDispatches > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}
	return s
}

// ErrorRate returns the error rate as a percentage.
func (cm *CommandMetrics) ErrorRate() float64 {
	if cm.DispatchCount == 0 {
		return 0
	}
	return float64(cm.ErrorCount) / float64(cm.DispatchCount) * 100
}

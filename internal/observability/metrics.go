package observability

import "sync"

// Metrics provides basic in-memory counters for the realtime gateway.
type Metrics struct {
	mu               sync.Mutex
	commandCount     map[string]int64
	eventCount       map[string]int64
	dispatchFailures map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		commandCount:     make(map[string]int64),
		eventCount:       make(map[string]int64),
		dispatchFailures: make(map[string]int64),
	}
}

// RecordCommand increments the counter for an inbound command.
func (m *Metrics) RecordCommand(command string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCount[command]++
}

// RecordEvent increments the counter for a dispatched event send.
func (m *Metrics) RecordEvent(event string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[event]++
}

// RecordDispatchFailure increments the failure counter for an event.
func (m *Metrics) RecordDispatchFailure(event string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchFailures[event]++
}

// CommandCount reports how many times a command has been handled.
func (m *Metrics) CommandCount(command string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandCount[command]
}

// DispatchFailures reports how many sends failed for an event.
func (m *Metrics) DispatchFailures(event string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchFailures[event]
}

// Totals reports aggregate command, event and failure counts.
func (m *Metrics) Totals() (commands, events, failures int64) {
	if m == nil {
		return 0, 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.commandCount {
		commands += n
	}
	for _, n := range m.eventCount {
		events += n
	}
	for _, n := range m.dispatchFailures {
		failures += n
	}
	return commands, events, failures
}

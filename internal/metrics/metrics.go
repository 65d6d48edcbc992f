// Package metrics defines the instrumentation hooks of the display pipeline.
package metrics

import "time"

// Collector receives pipeline events. Implementations must be safe for
// concurrent use.
type Collector interface {
	RecordRender(account string, success bool, duration time.Duration)
	RecordAggregation(account string, considered, excluded, stale int)
	RecordSourceCall(source string, success bool, duration time.Duration)
	RecordCircuitState(source string, state CircuitState)
	RecordFontTier(role, tier string)
}

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordRender(string, bool, time.Duration)     {}
func (NoOp) RecordAggregation(string, int, int, int)      {}
func (NoOp) RecordSourceCall(string, bool, time.Duration) {}
func (NoOp) RecordCircuitState(string, CircuitState)      {}
func (NoOp) RecordFontTier(string, string)                {}

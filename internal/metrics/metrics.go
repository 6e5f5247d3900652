// Package metrics provides a minimal instrumentation interface with a no-op
// default and an optional Prometheus-backed implementation.
package metrics

import (
	"sync"
	"time"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncOpTotal(op string, success bool)
	ObserveOpSeconds(op string, success bool, seconds float64)
	IncRequestTotal(route string, status int)
	ObserveRequestSeconds(route string, status int, seconds float64)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) IncOpTotal(string, bool)                    {}
func (n *noopRecorder) ObserveOpSeconds(string, bool, float64)     {}
func (n *noopRecorder) IncRequestTotal(string, int)                {}
func (n *noopRecorder) ObserveRequestSeconds(string, int, float64) {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	recorder = r
}

// TimeOp is a helper to time index and embedding operations.
func TimeOp(op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		dur := time.Since(start).Seconds()
		Default().IncOpTotal(op, success)
		Default().ObserveOpSeconds(op, success, dur)
	}
}

// TimeRequest is a helper to time HTTP handlers.
func TimeRequest(route string) func(status int) {
	start := time.Now()
	return func(status int) {
		dur := time.Since(start).Seconds()
		Default().IncRequestTotal(route, status)
		Default().ObserveRequestSeconds(route, status, dur)
	}
}

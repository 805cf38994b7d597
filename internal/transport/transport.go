// Package transport publishes analysis results to external consumers.
// Implementations must be non-blocking from the caller's point of view:
// the analysis loop calls Send on every cycle and must never stall on a
// slow network peer.
package transport

import "spectra/internal/analysis"

// Transport delivers analysis results to some sink. Implementations must
// be safe for concurrent use and drop rather than block when overloaded.
type Transport interface {
	Send(result analysis.Result) error
	Close() error
}

// Pump forwards every result from the subscription channel to the
// transport until the channel is closed. Run it on its own goroutine; it
// returns when the worker is closed.
func Pump(results <-chan analysis.Result, t Transport) {
	for result := range results {
		_ = t.Send(result)
	}
}

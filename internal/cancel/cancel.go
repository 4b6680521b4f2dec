// Package cancel provides stop signaling for polling loops.
//
// The ADC sampler and the stream session run tight non-blocking loops that
// check for shutdown on every pass, so the check has to be cheap:
//   - AtomicCanceler: a single atomic load per check
//   - ContextCanceler: a context.Context for loops that also do blocking I/O
//
// Bind connects a context to any Canceler so that shutdown driven by
// signal.NotifyContext reaches the atomic loops too.
package cancel

// Canceler provides cancellation signaling to a loop.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Done() concurrently
//   - Cancel() may be called concurrently with Done()
type Canceler interface {
	// Done returns true once cancellation has been triggered.
	Done() bool

	// Cancel triggers cancellation. Safe to call multiple times.
	Cancel()
}

package cancel

import "context"

// ContextCanceler wraps context.Context for cancellation signaling.
//
// The stream session uses it: the same context that stops the polling loop
// also bounds the blocking socket writes.
type ContextCanceler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewContext creates a ContextCanceler derived from parent.
func NewContext(parent context.Context) *ContextCanceler {
	ctx, cancel := context.WithCancel(parent)
	return &ContextCanceler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Done returns true if the context has been cancelled.
//
// This performs a non-blocking select on ctx.Done().
func (c *ContextCanceler) Done() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Cancel cancels the derived context.
func (c *ContextCanceler) Cancel() {
	c.cancel()
}

// Context returns the derived context.
func (c *ContextCanceler) Context() context.Context {
	return c.ctx
}

// Bind cancels c when ctx is done. The returned stop function detaches the
// binding; it reports false if c was already cancelled through it.
func Bind(ctx context.Context, c Canceler) (stop func() bool) {
	return context.AfterFunc(ctx, c.Cancel)
}

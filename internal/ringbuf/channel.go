package ringbuf

// Channel implements Buffer on top of a buffered channel.
//
// This is the standard library approach and the baseline RingBuffer is
// measured against. Each element costs one non-blocking channel operation
// via select with default.
type Channel[T any] struct {
	ch chan T
}

// NewChannel creates a Channel holding up to capacity elements.
func NewChannel[T any](capacity int) *Channel[T] {
	return &Channel[T]{
		ch: make(chan T, capacity),
	}
}

// Enqueue adds an element.
// Returns ErrFull if the channel buffer is full (non-blocking).
func (c *Channel[T]) Enqueue(v T) error {
	select {
	case c.ch <- v:
		return nil
	default:
		return ErrFull
	}
}

// EnqueueSlice adds all of data or nothing.
//
// The free-space check is only exact with a single writer, which Buffer
// already requires.
func (c *Channel[T]) EnqueueSlice(data []T) error {
	if len(data) > cap(c.ch)-len(c.ch) {
		return ErrFull
	}
	for _, v := range data {
		c.ch <- v
	}
	return nil
}

// DequeueInto moves up to len(dst) elements into dst (non-blocking).
func (c *Channel[T]) DequeueInto(dst []T) int {
	for i := range dst {
		select {
		case v := <-c.ch:
			dst[i] = v
		default:
			return i
		}
	}
	return len(dst)
}

// Len returns the current number of buffered elements.
func (c *Channel[T]) Len() int {
	return len(c.ch)
}

// Cap returns the channel buffer size.
func (c *Channel[T]) Cap() int {
	return cap(c.ch)
}

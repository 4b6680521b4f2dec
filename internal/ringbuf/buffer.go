package ringbuf

// Buffer is a bounded, non-blocking element buffer with one writer and one
// reader.
//
// Enqueue and EnqueueSlice return ErrFull instead of waiting; EnqueueSlice
// is all-or-nothing. DequeueInto returns 0 when empty.
type Buffer[T any] interface {
	// Enqueue adds one element.
	Enqueue(T) error

	// EnqueueSlice adds every element of the slice, or none of them.
	EnqueueSlice([]T) error

	// DequeueInto moves up to len(dst) elements into dst.
	DequeueInto(dst []T) int

	// Len returns the number of buffered elements.
	Len() int

	// Cap returns the maximum number of buffered elements.
	Cap() int
}

var (
	_ Buffer[byte] = (*RingBuffer[byte])(nil)
	_ Buffer[byte] = (*Channel[byte])(nil)
)

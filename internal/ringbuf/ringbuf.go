package ringbuf

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// DefaultCapacity is the slot count of the ADC intake buffer.
const DefaultCapacity = 1024

var (
	// ErrFull is returned when an enqueue does not fit in the free space.
	ErrFull = errors.New("ringbuf: buffer full")

	// ErrConcurrentWrite is the panic value for overlapping write-role calls.
	ErrConcurrentWrite = errors.New("ringbuf: concurrent write on single-writer buffer")

	// ErrConcurrentRead is the panic value for overlapping read-role calls.
	ErrConcurrentRead = errors.New("ringbuf: concurrent read on single-reader buffer")

	// ErrClearLocked is the panic value for Clear racing a reader or writer.
	ErrClearLocked = errors.New("ringbuf: clear on locked buffer")
)

// RingBuffer is a fixed-capacity circular buffer for one writer and one
// reader.
//
// WARNING: two writers or two readers at once is a programming error. The
// role guards panic on it rather than serialising the calls.
//
// Every cursor stays in [0, Size()). tail is written only by the write role
// (and Clear), head only by the read role (and Clear).
type RingBuffer[T any] struct {
	storage []T
	n       uint64

	_ cpu.CacheLinePad

	tail atomic.Uint64 // next slot to write

	_ cpu.CacheLinePad

	head atomic.Uint64 // next slot to read

	_ cpu.CacheLinePad

	writeLock atomic.Bool
	readLock  atomic.Bool

	writerTaken atomic.Bool
	readerTaken atomic.Bool
}

// New creates a RingBuffer with n slots, holding at most n-1 elements.
// It panics if n < 2.
func New[T any](n int) *RingBuffer[T] {
	if n < 2 {
		panic("ringbuf: capacity must be at least 2 slots")
	}
	return &RingBuffer[T]{
		storage: make([]T, n),
		n:       uint64(n),
	}
}

func (r *RingBuffer[T]) lockWrite() {
	if !r.writeLock.CompareAndSwap(false, true) {
		panic(ErrConcurrentWrite)
	}
}

func (r *RingBuffer[T]) lockRead() {
	if !r.readLock.CompareAndSwap(false, true) {
		panic(ErrConcurrentRead)
	}
}

// Clear discards all buffered elements. Stored values are left in place.
//
// Clear is both a write-role and a read-role call: it panics with
// ErrClearLocked if either role is in flight.
func (r *RingBuffer[T]) Clear() {
	if !r.writeLock.CompareAndSwap(false, true) {
		panic(ErrClearLocked)
	}
	if !r.readLock.CompareAndSwap(false, true) {
		r.writeLock.Store(false)
		panic(ErrClearLocked)
	}

	r.tail.Store(r.head.Load())

	r.writeLock.Store(false)
	r.readLock.Store(false)
}

// Enqueue appends one element.
// Returns ErrFull, with no mutation, if no slot is free.
//
// Write role: panics with ErrConcurrentWrite if another write is in flight.
func (r *RingBuffer[T]) Enqueue(v T) error {
	r.lockWrite()
	defer r.writeLock.Store(false)

	tail := r.tail.Load()
	head := r.head.Load()

	next := (tail + 1) % r.n
	if next == head {
		return ErrFull
	}

	r.storage[tail] = v

	// Publish after the slot store so a reader never sees the cursor first.
	r.tail.Store(next)

	return nil
}

// EnqueueSlice appends all of data or nothing.
// Returns ErrFull, with no mutation, if len(data) exceeds the free space.
//
// Write role: panics with ErrConcurrentWrite if another write is in flight.
func (r *RingBuffer[T]) EnqueueSlice(data []T) error {
	r.lockWrite()
	defer r.writeLock.Store(false)

	tail := r.tail.Load()
	head := r.head.Load()

	free := (r.n + head - tail - 1) % r.n
	l := uint64(len(data))
	if l > free {
		return ErrFull
	}

	size1 := min(r.n, tail+l) - tail
	copy(r.storage[tail:tail+size1], data[:size1])
	copy(r.storage[:l-size1], data[size1:])

	r.tail.Store((tail + l) % r.n)

	return nil
}

// DequeueInto moves up to len(dst) elements into dst and returns how many
// were moved. Zero means the buffer was empty; it is not an error.
// dst[n:] is left untouched.
//
// Read role: panics with ErrConcurrentRead if another read is in flight.
func (r *RingBuffer[T]) DequeueInto(dst []T) int {
	r.lockRead()
	defer r.readLock.Store(false)

	tail := r.tail.Load()
	head := r.head.Load()

	available := (r.n + tail - head) % r.n
	toCopy := min(available, uint64(len(dst)))

	size1 := min(head+toCopy, r.n) - head
	copy(dst[:size1], r.storage[head:head+size1])
	copy(dst[size1:toCopy], r.storage[:toCopy-size1])

	r.head.Store((head + toCopy) % r.n)

	return int(toCopy)
}

// Len returns the number of buffered elements.
// This is a snapshot and may be stale by the time it is used.
func (r *RingBuffer[T]) Len() int {
	tail := r.tail.Load()
	head := r.head.Load()
	return int((r.n + tail - head) % r.n)
}

// Free returns the number of elements that could be enqueued now.
func (r *RingBuffer[T]) Free() int {
	return r.Cap() - r.Len()
}

// Cap returns the usable capacity, one less than Size.
func (r *RingBuffer[T]) Cap() int {
	return int(r.n - 1)
}

// Size returns the number of storage slots.
func (r *RingBuffer[T]) Size() int {
	return int(r.n)
}

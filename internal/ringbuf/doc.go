// Package ringbuf provides a fixed-capacity circular buffer that moves
// elements between one producer and one consumer without allocating or
// blocking.
//
// This package offers:
//   - RingBuffer: the fixed-size buffer with fail-fast role guards
//   - Writer / Reader: single-owner handles for the two roles
//   - Channel: a buffered-channel baseline with the same Buffer contract
//
// # Roles (IMPORTANT)
//
// RingBuffer has two roles. Enqueue and EnqueueSlice are write-role calls;
// DequeueInto is a read-role call; Clear is both. At most one call of each
// role may be in flight at any instant. A writer and a reader may run
// concurrently with each other.
//
// The roles are guarded by atomic flags taken with a single compare-and-swap.
// A second call of the same role while one is in flight is a programming
// error and panics with ErrConcurrentWrite, ErrConcurrentRead or
// ErrClearLocked. The guard never waits.
//
// Prefer the handles: Writer() and Reader() each succeed once per buffer, so
// the goroutine holding a handle is the only one able to act in that role.
//
//	rb := ringbuf.New[byte](ringbuf.DefaultCapacity)
//	w, r, err := rb.Split()
//	if err != nil {
//		return err
//	}
//	go produce(w)
//	consume(r)
//
// # Capacity
//
// A buffer built with New(n) has n slots and holds at most n-1 elements; the
// spare slot tells empty (head == tail) from full. Enqueue reports ErrFull
// without mutating anything. EnqueueSlice is all-or-nothing. DequeueInto
// never fails and returns 0 when there is nothing to read.
package ringbuf

package ringbuf

import "errors"

var (
	// ErrWriterTaken is returned when the write handle was already handed out.
	ErrWriterTaken = errors.New("ringbuf: writer already taken")

	// ErrReaderTaken is returned when the read handle was already handed out.
	ErrReaderTaken = errors.New("ringbuf: reader already taken")
)

// Writer is the single write-role handle of a RingBuffer.
type Writer[T any] struct {
	r *RingBuffer[T]
}

// Reader is the single read-role handle of a RingBuffer.
type Reader[T any] struct {
	r *RingBuffer[T]
}

// Writer hands out the write handle. Only the first call succeeds.
func (r *RingBuffer[T]) Writer() (*Writer[T], error) {
	if !r.writerTaken.CompareAndSwap(false, true) {
		return nil, ErrWriterTaken
	}
	return &Writer[T]{r: r}, nil
}

// Reader hands out the read handle. Only the first call succeeds.
func (r *RingBuffer[T]) Reader() (*Reader[T], error) {
	if !r.readerTaken.CompareAndSwap(false, true) {
		return nil, ErrReaderTaken
	}
	return &Reader[T]{r: r}, nil
}

// Split hands out both handles. It fails if either was already taken, in
// which case neither handle is taken by this call.
func (r *RingBuffer[T]) Split() (*Writer[T], *Reader[T], error) {
	w, err := r.Writer()
	if err != nil {
		return nil, nil, err
	}
	rd, err := r.Reader()
	if err != nil {
		r.writerTaken.Store(false)
		return nil, nil, err
	}
	return w, rd, nil
}

// Enqueue appends one element. See RingBuffer.Enqueue.
func (w *Writer[T]) Enqueue(v T) error {
	return w.r.Enqueue(v)
}

// EnqueueSlice appends all of data or nothing. See RingBuffer.EnqueueSlice.
func (w *Writer[T]) EnqueueSlice(data []T) error {
	return w.r.EnqueueSlice(data)
}

// Free returns the number of elements that could be enqueued now.
func (w *Writer[T]) Free() int {
	return w.r.Free()
}

// DequeueInto moves up to len(dst) elements into dst. See RingBuffer.DequeueInto.
func (rd *Reader[T]) DequeueInto(dst []T) int {
	return rd.r.DequeueInto(dst)
}

// Len returns the number of buffered elements.
func (rd *Reader[T]) Len() int {
	return rd.r.Len()
}

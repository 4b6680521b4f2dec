// Command ringbench compares the guarded RingBuffer against a buffered
// channel, both behind ringbuf.Buffer, and measures the sampler's hot-loop
// overhead of checking for cancellation and ticks.
//
// Usage:
//
//	go run ./cmd/ringbench -n 10000000 -size 1024 -block 64
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/randomizedcoder/adcstream/internal/cancel"
	"github.com/randomizedcoder/adcstream/internal/ringbuf"
	"github.com/randomizedcoder/adcstream/internal/tick"
)

func main() {
	iterations := flag.Int("n", 10_000_000, "number of iterations")
	size := flag.Int("size", ringbuf.DefaultCapacity, "ring size in slots")
	block := flag.Int("block", 64, "bytes per bulk enqueue")
	flag.Parse()

	if *block < 1 || *block > *size-1 {
		fmt.Printf("block must be in [1, %d]\n", *size-1)
		return
	}

	fmt.Printf("Benchmarking ring buffers (%d iterations, size=%d, block=%d)\n", *iterations, *size, *block)
	fmt.Println("─────────────────────────────────────────────────")

	// RingBuffer holds size-1 elements, so give the channel the same room.
	chDur := single(ringbuf.NewChannel[byte](*size-1), *iterations)
	ringDur := single(ringbuf.New[byte](*size), *iterations)
	report("enqueue + dequeue per iteration", *iterations, chDur, ringDur)

	n := *iterations / *block
	if n == 0 {
		n = 1
	}
	chDur = bulk(ringbuf.NewChannel[byte](*size-1), n, *block)
	ringDur = bulk(ringbuf.New[byte](*size), n, *block)
	report(fmt.Sprintf("EnqueueSlice(%d) + DequeueInto per iteration", *block), n, chDur, ringDur)

	loop(*iterations)
}

func single(b ringbuf.Buffer[byte], iterations int) time.Duration {
	dst := make([]byte, 1)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		_ = b.Enqueue(byte(i))
		b.DequeueInto(dst)
	}
	return time.Since(start)
}

func bulk(b ringbuf.Buffer[byte], iterations, block int) time.Duration {
	src := make([]byte, block)
	dst := make([]byte, block)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		_ = b.EnqueueSlice(src)
		b.DequeueInto(dst)
	}
	return time.Since(start)
}

func report(title string, iterations int, chDur, ringDur time.Duration) {
	chPerOp := float64(chDur.Nanoseconds()) / float64(iterations)
	ringPerOp := float64(ringDur.Nanoseconds()) / float64(iterations)

	fmt.Printf("\nResults (%s):\n", title)
	fmt.Printf("  Channel:     %v (%.2f ns/op)\n", chDur, chPerOp)
	fmt.Printf("  RingBuffer:  %v (%.2f ns/op)\n", ringDur, ringPerOp)

	if ringPerOp < chPerOp {
		fmt.Printf("\n  Speedup:  %.2fx (RingBuffer faster)\n", chPerOp/ringPerOp)
	} else {
		fmt.Printf("\n  Speedup:  %.2fx (Channel faster)\n", ringPerOp/chPerOp)
	}
}

// loop times the per-iteration checks the ADC sampler makes.
func loop(iterations int) {
	interval := time.Hour // long so we measure check overhead, not ticks

	ctxCancel := cancel.NewContext(context.Background())
	stdTicker := tick.NewTicker(interval)
	start := time.Now()
	for i := 0; i < iterations; i++ {
		_ = ctxCancel.Done()
		_ = stdTicker.Tick()
	}
	stdDur := time.Since(start)
	stdTicker.Stop()
	ctxCancel.Cancel()

	atomicCancel := cancel.NewAtomic()
	atomicTicker := tick.NewAtomicTicker(interval)
	start = time.Now()
	for i := 0; i < iterations; i++ {
		_ = atomicCancel.Done()
		_ = atomicTicker.Tick()
	}
	atomicDur := time.Since(start)

	stdPerOp := float64(stdDur.Nanoseconds()) / float64(iterations)
	atomicPerOp := float64(atomicDur.Nanoseconds()) / float64(iterations)

	fmt.Printf("\nResults (cancel + tick check per iteration):\n")
	fmt.Printf("  Context + time.Ticker:  %v (%.2f ns/op)\n", stdDur, stdPerOp)
	fmt.Printf("  Atomic + AtomicTicker:  %v (%.2f ns/op)\n", atomicDur, atomicPerOp)
	if atomicPerOp > 0 {
		fmt.Printf("\n  Speedup:  %.2fx\n", stdPerOp/atomicPerOp)
	}
}

package stream_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/randomizedcoder/adcstream/internal/metrics"
	"github.com/randomizedcoder/adcstream/internal/ringbuf"
	"github.com/randomizedcoder/adcstream/internal/stream"
)

type fixture struct {
	rb      *ringbuf.RingBuffer[byte]
	w       *ringbuf.Writer[byte]
	metrics *metrics.Metrics
	addr    string
	cancel  context.CancelFunc
	done    chan error
}

func startServer(t *testing.T, drain bool) *fixture {
	t.Helper()

	rb := ringbuf.New[byte](256)
	w, r, err := rb.Split()
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	srv, err := stream.New(r, stream.Config{
		Chunk:          32,
		Poll:           100 * time.Microsecond,
		WriteTimeout:   time.Second,
		DrainOnConnect: drain,
	}, zap.NewNop(), m)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{
		rb:      rb,
		w:       w,
		metrics: m,
		addr:    ln.Addr().String(),
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() { f.done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})
	return f
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	return conn
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, time.Millisecond, msg)
}

func TestNew_Validates(t *testing.T) {
	r, err := ringbuf.New[byte](8).Reader()
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())

	_, err = stream.New(r, stream.Config{Chunk: 0, Poll: time.Millisecond}, zap.NewNop(), m)
	assert.Error(t, err)
	_, err = stream.New(r, stream.Config{Chunk: 8}, zap.NewNop(), m)
	assert.Error(t, err)

	for _, chunk := range []int{1, 33} {
		_, err = stream.New(r, stream.Config{Chunk: chunk, Poll: time.Millisecond}, zap.NewNop(), m)
		assert.ErrorContains(t, err, "multiple of 2", "chunk %d", chunk)
	}
}

func TestServe_StreamsBufferedBytes(t *testing.T) {
	f := startServer(t, false)

	want := []byte("0123456789abcdefghijklmnopqrstuvwxyz0123456789")
	require.NoError(t, f.w.EnqueueSlice(want))

	conn := dial(t, f.addr)
	defer conn.Close()

	got := make([]byte, len(want))
	_, err := io.ReadFull(conn, got)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StreamBytes) == float64(len(want))
	}, "stream bytes metric")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StreamClients))
}

func TestServe_LongStreamInOrder(t *testing.T) {
	f := startServer(t, false)
	conn := dial(t, f.addr)
	defer conn.Close()

	const total = 64 * 1024
	go func() {
		block := make([]byte, 16)
		for sent := 0; sent < total; {
			for i := range block {
				block[i] = byte(sent + i)
			}
			if f.w.EnqueueSlice(block) != nil {
				time.Sleep(50 * time.Microsecond)
				continue
			}
			sent += len(block)
		}
	}()

	got := make([]byte, total)
	_, err := io.ReadFull(conn, got)
	require.NoError(t, err)
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("byte %d: expected %d, got %d", i, byte(i), b)
		}
	}
}

func TestServe_DrainOnConnect(t *testing.T) {
	f := startServer(t, true)

	require.NoError(t, f.w.EnqueueSlice([]byte("stale")))

	conn := dial(t, f.addr)
	defer conn.Close()

	eventually(t, func() bool { return f.rb.Len() == 0 }, "stale bytes drained")
	eventually(t, func() bool { return testutil.ToFloat64(f.metrics.StreamClients) == 1 }, "client registered")

	require.NoError(t, f.w.EnqueueSlice([]byte("fresh")))

	got := make([]byte, 5)
	_, err := io.ReadFull(conn, got)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestServe_NextClientAfterHangup(t *testing.T) {
	f := startServer(t, false)

	first := dial(t, f.addr)
	require.NoError(t, f.w.EnqueueSlice([]byte{1, 2, 3, 4}))
	buf := make([]byte, 4)
	_, err := io.ReadFull(first, buf)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := dial(t, f.addr)
	defer second.Close()

	// Keep feeding until the server notices the hangup and moves on.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			_ = f.w.EnqueueSlice([]byte{0xaa, 0xbb})
			time.Sleep(time.Millisecond)
		}
	}()

	one := make([]byte, 1)
	_, err = io.ReadFull(second, one)
	require.NoError(t, err)
	assert.Contains(t, []byte{0xaa, 0xbb}, one[0])
}

func TestServe_ShutdownWithClient(t *testing.T) {
	f := startServer(t, false)

	conn := dial(t, f.addr)
	defer conn.Close()
	eventually(t, func() bool { return testutil.ToFloat64(f.metrics.StreamClients) == 1 }, "client registered")

	f.cancel()

	select {
	case err := <-f.done:
		assert.NoError(t, err)
		f.done <- err // for Cleanup
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	// The server closed our connection.
	_, err := conn.Read(make([]byte, 1))
	assert.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.StreamClients))
}

func TestServe_SamplesStayAlignedAcrossClients(t *testing.T) {
	f := startServer(t, false)

	// Every sample is 0x01nn, so each odd byte on the wire must be 0x01.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		block := make([]byte, 6)
		var n byte
		for {
			select {
			case <-stop:
				return
			default:
			}
			for i := 0; i < len(block); i += 2 {
				block[i], block[i+1] = n, 0x01
				n++
			}
			_ = f.w.EnqueueSlice(block)
			time.Sleep(100 * time.Microsecond)
		}
	}()

	first := dial(t, f.addr)
	odd := make([]byte, 3)
	_, err := io.ReadFull(first, odd)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := dial(t, f.addr)
	defer second.Close()

	got := make([]byte, 64)
	_, err = io.ReadFull(second, got)
	require.NoError(t, err)
	for i := 1; i < len(got); i += 2 {
		if got[i] != 0x01 {
			t.Fatalf("byte %d: expected sample high byte 0x01, got %#x", i, got[i])
		}
	}
}

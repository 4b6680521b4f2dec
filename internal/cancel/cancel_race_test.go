package cancel_test

import (
	"context"
	"sync"
	"testing"

	"github.com/randomizedcoder/adcstream/internal/cancel"
)

// TestCanceler_Race polls Done() from many goroutines while another cancels.
// Run with: go test -race ./internal/cancel
func TestCanceler_Race(t *testing.T) {
	testCases := []struct {
		name string
		c    cancel.Canceler
	}{
		{"Context", cancel.NewContext(context.Background())},
		{"Atomic", cancel.NewAtomic()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var wg sync.WaitGroup

			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 10000; j++ {
						_ = tc.c.Done()
					}
				}()
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				tc.c.Cancel()
			}()

			wg.Wait()

			if !tc.c.Done() {
				t.Error("expected Done() = true after Cancel()")
			}
		})
	}
}
